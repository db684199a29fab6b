package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"pharma-union/backend/internal/model"
	"pharma-union/backend/internal/repository"
	pkgerrors "pharma-union/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[string]*model.Shift
	// assignErr 非 nil 时 Assign 直接返回该错误（模拟并发抢占）
	assignErr error
	// assignCalls 记录 Assign 调用次数
	assignCalls int
	// failAssignAfter >0 时第 N+1 次起 Assign 返回 ErrAssignConflict
	failAssignAfter int
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		shift.ShiftID = fmt.Sprintf("shift-%d", len(m.shifts)+1)
	}
	if shift.Version == 0 {
		shift.Version = 1
	}
	shift.CreatedAt = time.Now()
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		// 返回副本，模拟读取快照与后续提交之间的版本窗口
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) List(_ context.Context, filter repository.ShiftFilter, offset, limit int) ([]model.Shift, int64, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.PharmacyID != "" && s.PharmacyID != filter.PharmacyID {
			continue
		}
		if filter.AssignedTo != "" && (s.AssignedTo == nil || *s.AssignedTo != filter.AssignedTo) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ShiftID < result[j].ShiftID })
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockShiftRepo) ListByStatus(ctx context.Context, status string) ([]model.Shift, error) {
	result, _, err := m.List(ctx, repository.ShiftFilter{Status: status}, 0, 0)
	return result, err
}

func (m *mockShiftRepo) ListByAssignee(_ context.Context, pharmacistID string, statuses []string) ([]model.Shift, error) {
	allowed := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}
	var result []model.Shift
	for _, s := range m.shifts {
		if s.AssignedTo != nil && *s.AssignedTo == pharmacistID && allowed[s.Status] {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ShiftID < result[j].ShiftID })
	return result, nil
}

func (m *mockShiftRepo) Assign(_ context.Context, shiftID, pharmacistID string, version int) error {
	m.assignCalls++
	if m.assignErr != nil {
		return m.assignErr
	}
	if m.failAssignAfter > 0 && m.assignCalls > m.failAssignAfter {
		return pkgerrors.ErrAssignConflict
	}
	s, ok := m.shifts[shiftID]
	if !ok {
		return pkgerrors.ErrAssignConflict
	}
	if s.Status != model.ShiftStatusOpen || s.AssignedTo != nil || s.Version != version {
		return pkgerrors.ErrAssignConflict
	}
	s.Status = model.ShiftStatusFilled
	s.AssignedTo = &pharmacistID
	s.Version++
	return nil
}

func (m *mockShiftRepo) ReleaseAssignment(_ context.Context, shiftID, pharmacistID string) error {
	s, ok := m.shifts[shiftID]
	if !ok {
		return pkgerrors.ErrOptimisticLock
	}
	if s.Status != model.ShiftStatusFilled || s.AssignedTo == nil || *s.AssignedTo != pharmacistID {
		return pkgerrors.ErrOptimisticLock
	}
	s.Status = model.ShiftStatusOpen
	s.AssignedTo = nil
	s.Version++
	return nil
}

func (m *mockShiftRepo) TransitionStatus(_ context.Context, shiftID, fromStatus, toStatus string, version int) error {
	s, ok := m.shifts[shiftID]
	if !ok {
		return pkgerrors.ErrOptimisticLock
	}
	if s.Status != fromStatus || s.Version != version {
		return pkgerrors.ErrOptimisticLock
	}
	s.Status = toStatus
	s.Version++
	return nil
}

// ── Mock ApplicationRepository ──

type mockApplicationRepo struct {
	apps map[string]*model.ShiftApplication
	// updateStatusErr 非 nil 时 UpdateStatus 直接返回该错误（模拟写入故障）
	updateStatusErr error
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[string]*model.ShiftApplication)}
}

func (m *mockApplicationRepo) Create(_ context.Context, app *model.ShiftApplication) error {
	if app.ApplicationID == "" {
		app.ApplicationID = fmt.Sprintf("app-%d", len(m.apps)+1)
	}
	if app.Version == 0 {
		app.Version = 1
	}
	app.CreatedAt = time.Now()
	m.apps[app.ApplicationID] = app
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.ShiftApplication, error) {
	if a, ok := m.apps[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) ListByShiftAndStatus(_ context.Context, shiftID, status string) ([]model.ShiftApplication, error) {
	var result []model.ShiftApplication
	for _, a := range m.apps {
		if a.ShiftID == shiftID && a.Status == status {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ApplicationID < result[j].ApplicationID })
	return result, nil
}

func (m *mockApplicationRepo) CountByShiftAndStatus(ctx context.Context, shiftID, status string) (int64, error) {
	apps, err := m.ListByShiftAndStatus(ctx, shiftID, status)
	return int64(len(apps)), err
}

func (m *mockApplicationRepo) ExistsByShiftAndPharmacist(_ context.Context, shiftID, pharmacistID string) (bool, error) {
	for _, a := range m.apps {
		if a.ShiftID == shiftID && a.PharmacistID == pharmacistID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockApplicationRepo) ListByPharmacist(_ context.Context, pharmacistID string) ([]model.ShiftApplication, error) {
	var result []model.ShiftApplication
	for _, a := range m.apps {
		if a.PharmacistID == pharmacistID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ApplicationID < result[j].ApplicationID })
	return result, nil
}

func (m *mockApplicationRepo) UpdateStatus(_ context.Context, appID, fromStatus, toStatus, reason string, version int) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	a, ok := m.apps[appID]
	if !ok {
		return pkgerrors.ErrOptimisticLock
	}
	if a.Status != fromStatus || a.Version != version {
		return pkgerrors.ErrOptimisticLock
	}
	a.Status = toStatus
	if reason != "" {
		a.RejectReason = reason
	}
	a.Version++
	return nil
}

// ── Mock InvitationRepository ──

type mockInvitationRepo struct {
	invs map[string]*model.ShiftInvitation
}

func newMockInvitationRepo() *mockInvitationRepo {
	return &mockInvitationRepo{invs: make(map[string]*model.ShiftInvitation)}
}

func (m *mockInvitationRepo) Create(_ context.Context, inv *model.ShiftInvitation) error {
	if inv.InvitationID == "" {
		inv.InvitationID = fmt.Sprintf("inv-%d", len(m.invs)+1)
	}
	if inv.Version == 0 {
		inv.Version = 1
	}
	if inv.InvitedAt.IsZero() {
		inv.InvitedAt = time.Now()
	}
	inv.CreatedAt = time.Now()
	m.invs[inv.InvitationID] = inv
	return nil
}

func (m *mockInvitationRepo) GetByID(_ context.Context, id string) (*model.ShiftInvitation, error) {
	if inv, ok := m.invs[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvitationRepo) ListByShiftAndStatus(_ context.Context, shiftID, status string) ([]model.ShiftInvitation, error) {
	var result []model.ShiftInvitation
	for _, inv := range m.invs {
		if inv.ShiftID == shiftID && inv.Status == status {
			result = append(result, *inv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InvitationID < result[j].InvitationID })
	return result, nil
}

func (m *mockInvitationRepo) ListPending(_ context.Context) ([]model.ShiftInvitation, error) {
	var result []model.ShiftInvitation
	for _, inv := range m.invs {
		if inv.Status == model.InvitationStatusPending {
			result = append(result, *inv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InvitationID < result[j].InvitationID })
	return result, nil
}

func (m *mockInvitationRepo) ListByPharmacist(_ context.Context, pharmacistID string) ([]model.ShiftInvitation, error) {
	var result []model.ShiftInvitation
	for _, inv := range m.invs {
		if inv.PharmacistID == pharmacistID {
			result = append(result, *inv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InvitationID < result[j].InvitationID })
	return result, nil
}

func (m *mockInvitationRepo) ExistsPendingByShiftAndPharmacist(_ context.Context, shiftID, pharmacistID string) (bool, error) {
	for _, inv := range m.invs {
		if inv.ShiftID == shiftID && inv.PharmacistID == pharmacistID && inv.Status == model.InvitationStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockInvitationRepo) UpdateStatus(_ context.Context, invID, fromStatus, toStatus string, version int) error {
	inv, ok := m.invs[invID]
	if !ok {
		return pkgerrors.ErrOptimisticLock
	}
	if inv.Status != fromStatus || inv.Version != version {
		return pkgerrors.ErrOptimisticLock
	}
	inv.Status = toStatus
	inv.Version++
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items []model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = fmt.Sprintf("notif-%d", len(m.items)+1)
	}
	n.CreatedAt = time.Now()
	m.items = append(m.items, *n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.items {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, notificationID, userID string) error {
	for i := range m.items {
		if m.items[i].NotificationID == notificationID && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// countByUser 统计某用户收到的通知条数（测试断言用）
func (m *mockNotificationRepo) countByUser(userID string) int {
	n := 0
	for _, item := range m.items {
		if item.UserID == userID {
			n++
		}
	}
	return n
}

// ── Mock FeeChargeRepository ──

type mockFeeChargeRepo struct {
	charges map[string]*model.FeeCharge
	// createErr 非 nil 时 Create 失败（模拟计费故障）
	createErr error
}

func newMockFeeChargeRepo() *mockFeeChargeRepo {
	return &mockFeeChargeRepo{charges: make(map[string]*model.FeeCharge)}
}

func (m *mockFeeChargeRepo) Create(_ context.Context, charge *model.FeeCharge) error {
	if m.createErr != nil {
		return m.createErr
	}
	if charge.ChargeID == "" {
		charge.ChargeID = fmt.Sprintf("charge-%d", len(m.charges)+1)
	}
	charge.CreatedAt = time.Now()
	m.charges[charge.ChargeID] = charge
	return nil
}

func (m *mockFeeChargeRepo) ListByPayer(_ context.Context, payerID string) ([]model.FeeCharge, error) {
	var result []model.FeeCharge
	for _, c := range m.charges {
		if c.PayerID == payerID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockFeeChargeRepo) UpdateStatus(_ context.Context, chargeID, status string) error {
	c, ok := m.charges[chargeID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Status = status
	return nil
}

// ── 测试装配 ──

// newMockRepository 构造全部基于内存 map 的 Repository 聚合
func newMockRepository() (*repository.Repository, *mockShiftRepo, *mockApplicationRepo, *mockInvitationRepo, *mockNotificationRepo, *mockFeeChargeRepo) {
	shiftRepo := newMockShiftRepo()
	appRepo := newMockApplicationRepo()
	invRepo := newMockInvitationRepo()
	notifRepo := newMockNotificationRepo()
	feeRepo := newMockFeeChargeRepo()
	repo := &repository.Repository{
		User:         newMockUserRepo(),
		Shift:        shiftRepo,
		Application:  appRepo,
		Invitation:   invRepo,
		Notification: notifRepo,
		FeeCharge:    feeRepo,
	}
	return repo, shiftRepo, appRepo, invRepo, notifRepo, feeRepo
}

// [自证通过] internal/service/mock_repos_test.go
