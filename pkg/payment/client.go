// Package payment 提供支付网关封装
package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Config 支付配置
type Config struct {
	Provider   string `mapstructure:"provider"`
	MerchantID string `mapstructure:"merchant_id"`
	APIKey     string `mapstructure:"api_key"`
	NotifyURL  string `mapstructure:"notify_url"`
	IsSandbox  bool   `mapstructure:"is_sandbox"`
}

// TradeState 交易状态
const (
	TradeStateSuccess  = "SUCCESS"
	TradeStateNotPay   = "NOTPAY"
	TradeStateClosed   = "CLOSED"
	TradeStateRefunded = "REFUNDED"
)

// CreatePaymentRequest 创建支付请求
type CreatePaymentRequest struct {
	OutTradeNo  string `json:"out_trade_no"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"` // 单位：分
	ExpireAt    *time.Time `json:"expire_at,omitempty"`
}

// CreatePaymentResponse 创建支付响应
type CreatePaymentResponse struct {
	TransactionID string `json:"transaction_id"`
	PayURL        string `json:"pay_url"`
}

// QueryPaymentResponse 查询支付响应
type QueryPaymentResponse struct {
	TradeState    string     `json:"trade_state"`
	TransactionID string     `json:"transaction_id"`
	Amount        int64      `json:"amount"`
	SuccessTime   *time.Time `json:"success_time,omitempty"`
}

// RefundRequest 退款请求
type RefundRequest struct {
	OutTradeNo  string `json:"out_trade_no"`
	OutRefundNo string `json:"out_refund_no"`
	Amount      int64  `json:"amount"`
	Reason      string `json:"reason"`
}

// RefundResponse 退款响应
type RefundResponse struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
}

// Client 支付网关客户端
type Client interface {
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error)
	QueryPayment(ctx context.Context, outTradeNo string) (*QueryPaymentResponse, error)
	ClosePayment(ctx context.Context, outTradeNo string) error
	Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)
}

// NewClient 按配置创建支付客户端
func NewClient(cfg *Config) (Client, error) {
	switch cfg.Provider {
	case "", "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("不支持的支付渠道: %s", cfg.Provider)
	}
}

// MockClient 模拟支付客户端，沙箱环境与测试使用
// 支付单创建后默认为未支付，通过 MarkPaid 模拟支付完成
type MockClient struct {
	mu       sync.Mutex
	payments map[string]*QueryPaymentResponse
}

// NewMockClient 创建模拟支付客户端
func NewMockClient() *MockClient {
	return &MockClient{
		payments: make(map[string]*QueryPaymentResponse),
	}
}

// CreatePayment 创建支付单
func (c *MockClient) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("支付金额必须为正数: %d", req.Amount)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	transactionID := "mock_" + nonce()
	c.payments[req.OutTradeNo] = &QueryPaymentResponse{
		TradeState:    TradeStateNotPay,
		TransactionID: transactionID,
		Amount:        req.Amount,
	}

	return &CreatePaymentResponse{
		TransactionID: transactionID,
		PayURL:        fmt.Sprintf("https://pay.sandbox.local/cashier?trade_no=%s", req.OutTradeNo),
	}, nil
}

// QueryPayment 查询支付单
func (c *MockClient) QueryPayment(ctx context.Context, outTradeNo string) (*QueryPaymentResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	payment, ok := c.payments[outTradeNo]
	if !ok {
		return nil, fmt.Errorf("支付单不存在: %s", outTradeNo)
	}
	result := *payment
	return &result, nil
}

// ClosePayment 关闭支付单
func (c *MockClient) ClosePayment(ctx context.Context, outTradeNo string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if payment, ok := c.payments[outTradeNo]; ok && payment.TradeState == TradeStateNotPay {
		payment.TradeState = TradeStateClosed
	}
	return nil
}

// Refund 申请退款
func (c *MockClient) Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	payment, ok := c.payments[req.OutTradeNo]
	if !ok {
		return nil, fmt.Errorf("支付单不存在: %s", req.OutTradeNo)
	}
	if payment.TradeState != TradeStateSuccess {
		return nil, fmt.Errorf("支付单状态不允许退款: %s", payment.TradeState)
	}
	payment.TradeState = TradeStateRefunded

	return &RefundResponse{
		RefundID: "refund_" + nonce(),
		Status:   "SUCCESS",
	}, nil
}

// MarkPaid 将支付单标记为已支付，仅用于沙箱与测试
func (c *MockClient) MarkPaid(outTradeNo string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payment, ok := c.payments[outTradeNo]
	if !ok {
		return fmt.Errorf("支付单不存在: %s", outTradeNo)
	}
	if payment.TradeState != TradeStateNotPay {
		return fmt.Errorf("支付单状态异常: %s", payment.TradeState)
	}
	now := time.Now()
	payment.TradeState = TradeStateSuccess
	payment.SuccessTime = &now
	return nil
}

func nonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
