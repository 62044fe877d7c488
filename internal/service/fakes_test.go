package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"merchcrm/internal/model"
	"merchcrm/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. Each one keeps the same ordering and error
// semantics as the real implementation so services can be tested without a
// database.

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*model.User{}}
}

func (f *fakeUserRepo) add(u *model.User) *model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	f.add(user)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(_ context.Context, page, limit int, search string) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range f.users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), strings.ToLower(search)) &&
			!strings.Contains(strings.ToLower(u.Email), strings.ToLower(search)) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.User{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	u, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "name":
			u.Name = value.(string)
		case "email":
			u.Email = value.(string)
		case "password_hash":
			u.PasswordHash = value.(string)
		case "phone":
			u.Phone = value.(string)
		case "avatar":
			u.Avatar = value.(string)
		case "telegram":
			u.Telegram = value.(string)
		case "is_active":
			u.IsActive = value.(bool)
		case "role_id":
			if value == nil {
				u.RoleID = nil
			} else {
				id := value.(uuid.UUID)
				u.RoleID = &id
			}
		case "department_id":
			if value == nil {
				u.DepartmentID = nil
			} else {
				id := value.(uuid.UUID)
				u.DepartmentID = &id
			}
		}
	}
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) CountByRole(_ context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	for _, u := range f.users {
		if u.RoleID != nil && *u.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserRepo) CountByDepartment(_ context.Context, departmentID uuid.UUID) (int64, error) {
	var count int64
	for _, u := range f.users {
		if u.DepartmentID != nil && *u.DepartmentID == departmentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserRepo) TouchLastActive(_ context.Context, id uuid.UUID) error {
	if u, ok := f.users[id]; ok {
		now := time.Now()
		u.LastActiveAt = &now
	}
	return nil
}

type fakeRoleRepo struct {
	roles map[uuid.UUID]*model.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[uuid.UUID]*model.Role{}}
}

func (f *fakeRoleRepo) add(r *model.Role) *model.Role {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.roles[r.ID] = r
	return r
}

func (f *fakeRoleRepo) Create(_ context.Context, role *model.Role) error {
	for _, existing := range f.roles {
		if existing.Name == role.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	f.add(role)
	return nil
}

func (f *fakeRoleRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRoleRepo) List(_ context.Context) ([]model.Role, error) {
	var all []model.Role
	for _, r := range f.roles {
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (f *fakeRoleRepo) ListByDepartment(_ context.Context, departmentID uuid.UUID) ([]model.Role, error) {
	var all []model.Role
	for _, r := range f.roles {
		if r.DepartmentID != nil && *r.DepartmentID == departmentID {
			all = append(all, *r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (f *fakeRoleRepo) Update(_ context.Context, role *model.Role) error {
	f.roles[role.ID] = role
	return nil
}

func (f *fakeRoleRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r, ok := f.roles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "name":
			r.Name = value.(string)
		case "description":
			r.Description = value.(string)
		case "color":
			r.Color = value.(string)
		case "permissions":
			r.Permissions = value.(model.PermissionMatrix)
		case "department_id":
			if value == nil {
				r.DepartmentID = nil
			} else {
				id := value.(uuid.UUID)
				r.DepartmentID = &id
			}
		}
	}
	return nil
}

func (f *fakeRoleRepo) SetDepartment(_ context.Context, id uuid.UUID, departmentID *uuid.UUID) error {
	r, ok := f.roles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.DepartmentID = departmentID
	return nil
}

func (f *fakeRoleRepo) AssignToDepartment(_ context.Context, departmentID uuid.UUID, roleIDs []uuid.UUID) error {
	for _, id := range roleIDs {
		r, ok := f.roles[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		deptID := departmentID
		r.DepartmentID = &deptID
	}
	return nil
}

func (f *fakeRoleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.roles, id)
	return nil
}

type fakeDepartmentRepo struct {
	departments map[uuid.UUID]*model.Department
}

func newFakeDepartmentRepo() *fakeDepartmentRepo {
	return &fakeDepartmentRepo{departments: map[uuid.UUID]*model.Department{}}
}

func (f *fakeDepartmentRepo) add(d *model.Department) *model.Department {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.departments[d.ID] = d
	return d
}

func (f *fakeDepartmentRepo) Create(_ context.Context, dept *model.Department) error {
	for _, existing := range f.departments {
		if existing.Name == dept.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	f.add(dept)
	return nil
}

func (f *fakeDepartmentRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Department, error) {
	d, ok := f.departments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDepartmentRepo) List(_ context.Context) ([]model.Department, error) {
	var all []model.Department
	for _, d := range f.departments {
		all = append(all, *d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (f *fakeDepartmentRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	d, ok := f.departments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "name":
			d.Name = value.(string)
		case "description":
			d.Description = value.(string)
		case "color":
			d.Color = value.(string)
		case "is_active":
			d.IsActive = value.(bool)
		}
	}
	return nil
}

func (f *fakeDepartmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.departments, id)
	return nil
}

type fakeAuditRepo struct {
	entries   []*model.AuditLog
	failOnLog bool
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if f.failOnLog {
		return gorm.ErrInvalidData
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, page, limit int, _ repository.AuditFilter) ([]model.AuditLog, int64, error) {
	var all []model.AuditLog
	for _, e := range f.entries {
		all = append(all, *e)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.AuditLog{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeAuditRepo) Clear(_ context.Context) error {
	f.entries = nil
	return nil
}

type fakeSecurityRepo struct {
	events    []*model.SecurityEvent
	sysErrors []*model.SystemError
}

func (f *fakeSecurityRepo) LogEvent(_ context.Context, event *model.SecurityEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSecurityRepo) ListEvents(_ context.Context, page, limit int, _ repository.SecurityEventFilter) ([]model.SecurityEvent, int64, error) {
	var all []model.SecurityEvent
	for _, e := range f.events {
		all = append(all, *e)
	}
	return all, int64(len(all)), nil
}

func (f *fakeSecurityRepo) CountEventsSince(_ context.Context, since time.Time) ([]repository.EventCount, error) {
	buckets := map[[2]string]int64{}
	for _, e := range f.events {
		buckets[[2]string{e.EventType, e.Severity}]++
	}
	var counts []repository.EventCount
	for key, n := range buckets {
		counts = append(counts, repository.EventCount{EventType: key[0], Severity: key[1], Count: n})
	}
	return counts, nil
}

func (f *fakeSecurityRepo) RecentCritical(_ context.Context, since time.Time, limit int) ([]model.SecurityEvent, error) {
	var critical []model.SecurityEvent
	for _, e := range f.events {
		if e.Severity == model.SeverityCritical {
			critical = append(critical, *e)
		}
	}
	return critical, nil
}

func (f *fakeSecurityRepo) ClearFailedLogins(_ context.Context) error {
	var kept []*model.SecurityEvent
	for _, e := range f.events {
		if e.EventType != model.EventLoginFailed {
			kept = append(kept, e)
		}
	}
	f.events = kept
	return nil
}

func (f *fakeSecurityRepo) LogError(_ context.Context, sysErr *model.SystemError) error {
	f.sysErrors = append(f.sysErrors, sysErr)
	return nil
}

func (f *fakeSecurityRepo) ListErrors(_ context.Context, since time.Time, limit int) ([]model.SystemError, error) {
	var all []model.SystemError
	for _, e := range f.sysErrors {
		all = append(all, *e)
	}
	return all, nil
}

func (f *fakeSecurityRepo) ClearErrors(_ context.Context) error {
	f.sysErrors = nil
	return nil
}

// fakeTxManager runs the function directly. When a snapshot hook is set it
// restores state on error, mirroring a rollback.
type fakeTxManager struct {
	snapshot func() func()
}

func (t *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	var restore func()
	if t.snapshot != nil {
		restore = t.snapshot()
	}
	if err := fn(ctx); err != nil {
		if restore != nil {
			restore()
		}
		return err
	}
	return nil
}

type fakeInventoryRepo struct {
	items     map[uuid.UUID]*model.InventoryItem
	txs       []*model.InventoryTransaction
	locations []model.StorageLocation
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{items: map[uuid.UUID]*model.InventoryItem{}}
}

func (f *fakeInventoryRepo) addItem(item *model.InventoryItem) *model.InventoryItem {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.items[item.ID] = item
	return item
}

func (f *fakeInventoryRepo) CreateItem(_ context.Context, item *model.InventoryItem) error {
	for _, existing := range f.items {
		if item.SKU != "" && existing.SKU == item.SKU {
			return gorm.ErrDuplicatedKey
		}
	}
	f.addItem(item)
	return nil
}

func (f *fakeInventoryRepo) GetItem(_ context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeInventoryRepo) ListItems(_ context.Context, page, limit int, search string) ([]model.InventoryItem, int64, error) {
	var all []model.InventoryItem
	for _, item := range f.items {
		if item.IsArchived {
			continue
		}
		all = append(all, *item)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, int64(len(all)), nil
}

func (f *fakeInventoryRepo) AdjustQuantity(_ context.Context, id uuid.UUID, delta int) error {
	item, ok := f.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Quantity += delta
	return nil
}

func (f *fakeInventoryRepo) ListLocations(_ context.Context) ([]model.StorageLocation, error) {
	return f.locations, nil
}

func (f *fakeInventoryRepo) CreateTransaction(_ context.Context, tx *model.InventoryTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	f.txs = append(f.txs, tx)
	return nil
}

func (f *fakeInventoryRepo) ListHistory(_ context.Context, page, limit int, _ repository.HistoryFilter) ([]model.InventoryTransaction, int64, error) {
	var all []model.InventoryTransaction
	for _, tx := range f.txs {
		all = append(all, *tx)
	}
	return all, int64(len(all)), nil
}
