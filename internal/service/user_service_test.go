package service

import (
	"context"
	"testing"

	"merchcrm/internal/errlog"
	"merchcrm/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	users    *fakeUserRepo
	roles    *fakeRoleRepo
	audits   *fakeAuditRepo
	security *fakeSecurityRepo
	svc      UserService
	admin    *model.User
	role     *model.Role
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	users := newFakeUserRepo()
	roles := newFakeRoleRepo()
	audits := &fakeAuditRepo{}
	security := &fakeSecurityRepo{}

	role := roles.add(&model.Role{Name: "Менеджер", Permissions: model.EmptyPermissionMatrix()})

	admin := &model.User{Name: "Админ", Email: "admin@example.com", IsActive: true}
	require.NoError(t, admin.SetPassword("admin-pass"))
	users.add(admin)

	svc := NewUserService(users, roles, audits, security, &fakeTxManager{}, errlog.NewRecorder(security))
	return &userFixture{users: users, roles: roles, audits: audits, security: security, svc: svc, admin: admin, role: role}
}

func TestCreateUserValidation(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateUserRequest
		want string
	}{
		{
			name: "short name",
			req:  CreateUserRequest{Name: "А", Email: "a@b.ru", Password: "secret1", RoleID: f.role.ID.String()},
			want: "Имя должно содержать минимум 2 символа",
		},
		{
			name: "bad email",
			req:  CreateUserRequest{Name: "Анна", Email: "not-an-email", Password: "secret1", RoleID: f.role.ID.String()},
			want: "Некорректный email",
		},
		{
			name: "short password",
			req:  CreateUserRequest{Name: "Анна", Email: "a@b.ru", Password: "123", RoleID: f.role.ID.String()},
			want: "Пароль должен содержать минимум 6 символов",
		},
		{
			name: "unknown role",
			req:  CreateUserRequest{Name: "Анна", Email: "a@b.ru", Password: "secret1", RoleID: uuid.New().String()},
			want: "Роль не найдена",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.admin.ID, tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}

	// Nothing should have reached the audit log
	assert.Empty(t, f.audits.entries)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	req := CreateUserRequest{Name: "Анна", Email: "anna@example.com", Password: "secret1", RoleID: f.role.ID.String()}
	_, err := f.svc.Create(ctx, f.admin.ID, req)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.admin.ID, req)
	require.Error(t, err)
	assert.Equal(t, "Пользователь с таким email уже существует", err.Error())
}

func TestCreateUserWritesAudit(t *testing.T) {
	f := newUserFixture(t)

	user, err := f.svc.Create(context.Background(), f.admin.ID, CreateUserRequest{
		Name:     "Анна",
		Email:    "ANNA@Example.com",
		Password: "secret1",
		RoleID:   f.role.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", user.Email)

	require.Len(t, f.audits.entries, 1)
	entry := f.audits.entries[0]
	assert.Equal(t, model.ActionCreateUser, entry.Action)
	assert.Equal(t, model.EntityUser, entry.EntityType)
	assert.Equal(t, user.ID.String(), entry.EntityID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, f.admin.ID, *entry.UserID)
}

func TestDeleteUserSelf(t *testing.T) {
	f := newUserFixture(t)

	err := f.svc.Delete(context.Background(), f.admin.ID, f.admin.ID, DeleteUserRequest{}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "Нельзя удалить самого себя", err.Error())
}

func TestDeleteProtectedUserRequiresPassword(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	protected := f.users.add(&model.User{Name: "Система", Email: "system@example.com", IsSystem: true})

	err := f.svc.Delete(ctx, f.admin.ID, protected.ID, DeleteUserRequest{}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "Для этого действия требуется пароль", err.Error())

	err = f.svc.Delete(ctx, f.admin.ID, protected.ID, DeleteUserRequest{Password: "wrong"}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "Неверный пароль администратора", err.Error())

	// Still present after both failed attempts
	_, err = f.users.GetByID(ctx, protected.ID)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.admin.ID, protected.ID, DeleteUserRequest{Password: "admin-pass"}, RequestMeta{})
	require.NoError(t, err)

	_, err = f.users.GetByID(ctx, protected.ID)
	require.Error(t, err)
}

func TestDeleteUserVerifiesSuppliedPassword(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	target := f.users.add(&model.User{Name: "Анна", Email: "anna@example.com"})

	// A password passed along with the delete is checked even for an
	// unprotected account
	err := f.svc.Delete(ctx, f.admin.ID, target.ID, DeleteUserRequest{Password: "wrong"}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "Неверный пароль администратора", err.Error())

	_, err = f.users.GetByID(ctx, target.ID)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.admin.ID, target.ID, DeleteUserRequest{Password: "admin-pass"}, RequestMeta{})
	require.NoError(t, err)

	_, err = f.users.GetByID(ctx, target.ID)
	require.Error(t, err)
}

func TestDeleteUserRecordsSecurityEvent(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	target := f.users.add(&model.User{Name: "Анна", Email: "anna@example.com"})

	err := f.svc.Delete(ctx, f.admin.ID, target.ID, DeleteUserRequest{}, RequestMeta{IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	require.Len(t, f.security.events, 1)
	event := f.security.events[0]
	assert.Equal(t, model.EventRecordDelete, event.EventType)
	assert.Equal(t, model.SeverityWarning, event.Severity)
	assert.Equal(t, "10.0.0.1", event.IPAddress)
}

func TestUpdateUserClearsDepartment(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	deptID := uuid.New()
	target := f.users.add(&model.User{Name: "Анна", Email: "anna@example.com", DepartmentID: &deptID})

	empty := ""
	updated, err := f.svc.Update(ctx, f.admin.ID, target.ID, UpdateUserRequest{DepartmentID: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.DepartmentID)
}

func TestUpdateUserPartial(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	target := f.users.add(&model.User{Name: "Анна", Email: "anna@example.com", Phone: "111"})

	newName := "Анна Петрова"
	updated, err := f.svc.Update(ctx, f.admin.ID, target.ID, UpdateUserRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Анна Петрова", updated.Name)
	assert.Equal(t, "111", updated.Phone, "untouched fields must survive a partial update")
}

func TestListUsersPagination(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Борис", "Вера", "Глеб"} {
		f.users.add(&model.User{Name: name, Email: name + "@example.com"})
	}

	// Админ + three more
	page1, total, err := f.svc.List(ctx, 1, 2, "")
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, page1, 2)

	page2, _, err := f.svc.List(ctx, 2, 2, "")
	require.NoError(t, err)
	require.Len(t, page2, 2)

	// Pages are disjoint and ordered by name
	assert.NotEqual(t, page1[0].ID, page2[0].ID)
	assert.Less(t, page1[0].Name, page2[0].Name)
}
