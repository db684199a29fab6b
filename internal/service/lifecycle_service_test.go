package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"pharma-union/backend/config"
	"pharma-union/backend/internal/model"
)

type lifecycleFixture struct {
	svc       LifecycleService
	shiftRepo *mockShiftRepo
	appRepo   *mockApplicationRepo
	invRepo   *mockInvitationRepo
	notifRepo *mockNotificationRepo
	loc       *time.Location
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	repo, shiftRepo, appRepo, invRepo, notifRepo, _ := newMockRepository()
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	logger := zap.NewNop()
	cfg := &config.Config{
		Booking: config.BookingConfig{
			Timezone:      "America/Toronto",
			InvitationTTL: 168 * time.Hour,
		},
	}
	notifier := NewDBNotifier(repo, logger)
	return &lifecycleFixture{
		svc:       NewLifecycleService(cfg, repo, loc, notifier, logger),
		shiftRepo: shiftRepo,
		appRepo:   appRepo,
		invRepo:   invRepo,
		notifRepo: notifRepo,
		loc:       loc,
	}
}

// seedShiftAt 落一条指定状态、单场次的班次
func (f *lifecycleFixture) seedShiftAt(t *testing.T, status, date, start, end string, assignee string) *model.Shift {
	t.Helper()
	shift := &model.Shift{
		PharmacyID: "pharmacy-1",
		Title:      "门店药师",
		Status:     status,
		Schedule: model.SessionList{
			{Date: date, StartTime: start, EndTime: end},
		},
		VersionedModel: model.VersionedModel{Version: 1},
	}
	if assignee != "" {
		shift.AssignedTo = &assignee
	}
	if err := f.shiftRepo.Create(context.Background(), shift); err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}
	return shift
}

func TestCloseExpiredShifts(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	expired := f.seedShiftAt(t, model.ShiftStatusOpen, "2026-09-01", "09:00", "17:00", "")
	future := f.seedShiftAt(t, model.ShiftStatusOpen, "2026-09-10", "09:00", "17:00", "")

	now := time.Date(2026, 9, 2, 12, 0, 0, 0, f.loc)
	stat, err := f.svc.CloseExpiredShifts(ctx, now)
	if err != nil {
		t.Fatalf("CloseExpiredShifts 出错: %v", err)
	}
	if stat.Scanned != 2 || stat.Transitioned != 1 || stat.Failed != 0 {
		t.Errorf("stat = %+v, want {2 1 0}", stat)
	}

	stored, _ := f.shiftRepo.GetByID(ctx, expired.ShiftID)
	if stored.Status != model.ShiftStatusClosed {
		t.Errorf("过期班次 status = %s, want closed", stored.Status)
	}
	stored, _ = f.shiftRepo.GetByID(ctx, future.ShiftID)
	if stored.Status != model.ShiftStatusOpen {
		t.Errorf("未来班次 status = %s, want open", stored.Status)
	}
}

// 多场次班次：只要仍有未结束场次就不关闭
func TestCloseExpiredShifts_MultiSession(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	shift := &model.Shift{
		PharmacyID: "pharmacy-1",
		Title:      "连班",
		Status:     model.ShiftStatusOpen,
		Schedule: model.SessionList{
			{Date: "2026-09-01", StartTime: "09:00", EndTime: "17:00"},
			{Date: "2026-09-05", StartTime: "09:00", EndTime: "17:00"},
		},
		VersionedModel: model.VersionedModel{Version: 1},
	}
	f.shiftRepo.Create(ctx, shift)

	now := time.Date(2026, 9, 2, 12, 0, 0, 0, f.loc)
	stat, err := f.svc.CloseExpiredShifts(ctx, now)
	if err != nil {
		t.Fatalf("CloseExpiredShifts 出错: %v", err)
	}
	if stat.Transitioned != 0 {
		t.Errorf("仍有未来场次的班次不应关闭，Transitioned = %d", stat.Transitioned)
	}
}

func TestCloseExpiredShifts_Idempotent(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	f.seedShiftAt(t, model.ShiftStatusOpen, "2026-09-01", "09:00", "17:00", "")
	now := time.Date(2026, 9, 2, 12, 0, 0, 0, f.loc)

	if _, err := f.svc.CloseExpiredShifts(ctx, now); err != nil {
		t.Fatalf("首轮扫描出错: %v", err)
	}
	stat, err := f.svc.CloseExpiredShifts(ctx, now)
	if err != nil {
		t.Fatalf("二轮扫描出错: %v", err)
	}
	if stat.Scanned != 0 || stat.Transitioned != 0 {
		t.Errorf("重复扫描应无事可做，stat = %+v", stat)
	}
}

// 关闭过期班次时连带收尾：待处理申请被拒绝、待处理邀约置为 expired，药师收到通知
func TestCloseExpiredShifts_CascadesPendingBookings(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	shift := f.seedShiftAt(t, model.ShiftStatusOpen, "2026-09-01", "09:00", "17:00", "")

	app := &model.ShiftApplication{
		ShiftID:      shift.ShiftID,
		PharmacistID: "pharmacist-1",
		Status:       model.ApplicationStatusPending,
	}
	if err := f.appRepo.Create(ctx, app); err != nil {
		t.Fatalf("创建申请失败: %v", err)
	}
	inv := &model.ShiftInvitation{
		ShiftID:      shift.ShiftID,
		PharmacistID: "pharmacist-2",
		InvitedBy:    "pharmacy-1",
		Status:       model.InvitationStatusPending,
	}
	if err := f.invRepo.Create(ctx, inv); err != nil {
		t.Fatalf("创建邀约失败: %v", err)
	}

	now := time.Date(2026, 9, 2, 12, 0, 0, 0, f.loc)
	stat, err := f.svc.CloseExpiredShifts(ctx, now)
	if err != nil {
		t.Fatalf("CloseExpiredShifts 出错: %v", err)
	}
	if stat.Transitioned != 1 {
		t.Fatalf("Transitioned = %d, want 1", stat.Transitioned)
	}

	storedApp, _ := f.appRepo.GetByID(ctx, app.ApplicationID)
	if storedApp.Status != model.ApplicationStatusRejected {
		t.Errorf("申请 status = %s, want rejected", storedApp.Status)
	}
	if storedApp.RejectReason != "班次在录用前已过期" {
		t.Errorf("拒绝原因 = %q, want 班次在录用前已过期", storedApp.RejectReason)
	}
	storedInv, _ := f.invRepo.GetByID(ctx, inv.InvitationID)
	if storedInv.Status != model.InvitationStatusExpired {
		t.Errorf("邀约 status = %s, want expired", storedInv.Status)
	}

	// 两位药师各收到一条，药房收到关闭通知
	if n := f.notifRepo.countByUser("pharmacist-1"); n != 1 {
		t.Errorf("申请人通知数 = %d, want 1", n)
	}
	if n := f.notifRepo.countByUser("pharmacist-2"); n != 1 {
		t.Errorf("受邀人通知数 = %d, want 1", n)
	}
	if n := f.notifRepo.countByUser("pharmacy-1"); n != 1 {
		t.Errorf("药房通知数 = %d, want 1", n)
	}
}

func TestCompleteElapsedShifts_NotifiesBothParties(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	f.seedShiftAt(t, model.ShiftStatusFilled, "2026-09-01", "09:00", "17:00", "pharmacist-1")

	now := time.Date(2026, 9, 2, 12, 0, 0, 0, f.loc)
	stat, err := f.svc.CompleteElapsedShifts(ctx, now)
	if err != nil {
		t.Fatalf("CompleteElapsedShifts 出错: %v", err)
	}
	if stat.Transitioned != 1 {
		t.Fatalf("Transitioned = %d, want 1", stat.Transitioned)
	}

	// 双方各恰好一条完成通知
	if n := f.notifRepo.countByUser("pharmacy-1"); n != 1 {
		t.Errorf("药房通知数 = %d, want 1", n)
	}
	if n := f.notifRepo.countByUser("pharmacist-1"); n != 1 {
		t.Errorf("药师通知数 = %d, want 1", n)
	}

	// 重复扫描不再追加通知
	if _, err := f.svc.CompleteElapsedShifts(ctx, now); err != nil {
		t.Fatalf("二轮扫描出错: %v", err)
	}
	if n := f.notifRepo.countByUser("pharmacy-1"); n != 1 {
		t.Errorf("重复扫描后药房通知数 = %d, want 1", n)
	}
}

func TestCompleteElapsedShifts_SkipsOngoing(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	f.seedShiftAt(t, model.ShiftStatusFilled, "2026-09-01", "09:00", "17:00", "pharmacist-1")

	// 班中时刻不应完成
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, f.loc)
	stat, err := f.svc.CompleteElapsedShifts(ctx, now)
	if err != nil {
		t.Fatalf("CompleteElapsedShifts 出错: %v", err)
	}
	if stat.Transitioned != 0 {
		t.Errorf("进行中的班次不应完成，Transitioned = %d", stat.Transitioned)
	}
}

func TestExpireInvitations_TTLBoundary(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	invitedAt := time.Date(2026, 9, 1, 10, 0, 0, 0, f.loc)
	inv := &model.ShiftInvitation{
		ShiftID:      "shift-1",
		PharmacistID: "pharmacist-1",
		InvitedBy:    "pharmacy-1",
		Status:       model.InvitationStatusPending,
		InvitedAt:    invitedAt,
	}
	f.invRepo.Create(ctx, inv)

	// T+6 天 23 小时：仍在有效期内
	stat, err := f.svc.ExpireInvitations(ctx, invitedAt.Add(6*24*time.Hour+23*time.Hour))
	if err != nil {
		t.Fatalf("ExpireInvitations 出错: %v", err)
	}
	if stat.Transitioned != 0 {
		t.Errorf("有效期内不应过期，Transitioned = %d", stat.Transitioned)
	}

	// T+7 天 1 分钟：已过期
	stat, err = f.svc.ExpireInvitations(ctx, invitedAt.Add(7*24*time.Hour+time.Minute))
	if err != nil {
		t.Fatalf("ExpireInvitations 出错: %v", err)
	}
	if stat.Transitioned != 1 {
		t.Fatalf("超时邀约应过期，Transitioned = %d", stat.Transitioned)
	}

	stored, _ := f.invRepo.GetByID(ctx, inv.InvitationID)
	if stored.Status != model.InvitationStatusExpired {
		t.Errorf("status = %s, want expired", stored.Status)
	}
	// 双方各收到一条过期通知
	if n := f.notifRepo.countByUser("pharmacist-1"); n != 1 {
		t.Errorf("药师通知数 = %d, want 1", n)
	}
	if n := f.notifRepo.countByUser("pharmacy-1"); n != 1 {
		t.Errorf("药房通知数 = %d, want 1", n)
	}
}

// 显式 expires_at 优先于默认 TTL
func TestExpireInvitations_ExplicitExpiresAt(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	invitedAt := time.Date(2026, 9, 1, 10, 0, 0, 0, f.loc)
	expires := invitedAt.Add(24 * time.Hour)
	inv := &model.ShiftInvitation{
		ShiftID:      "shift-1",
		PharmacistID: "pharmacist-1",
		InvitedBy:    "pharmacy-1",
		Status:       model.InvitationStatusPending,
		InvitedAt:    invitedAt,
		ExpiresAt:    &expires,
	}
	f.invRepo.Create(ctx, inv)

	stat, err := f.svc.ExpireInvitations(ctx, invitedAt.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("ExpireInvitations 出错: %v", err)
	}
	if stat.Transitioned != 1 {
		t.Errorf("显式 expires_at 已过应过期，Transitioned = %d", stat.Transitioned)
	}
}

// [自证通过] internal/service/lifecycle_service_test.go
