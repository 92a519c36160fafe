package trip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

// Planner 外部路径规划服务的接口
// 功能：给定起终点、出发时刻与换乘预算，返回候选行程
// 说明：实现必须容忍并发调用；无路可走时返回空列表而不是错误，
// 临时性故障返回TransientError由上层重试
type Planner interface {
	GetItineraries(ctx context.Context, origin, destination geo.Location,
		departureTime float64, maxTransfers int) ([]*TravelPlan, error)
}

// TransientError 临时性上游错误
// 功能：标记网络/超时类错误，重试后可能恢复
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient planner error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient 判断错误是否为临时性错误
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// 重试参数，与原型系统的规划服务边界保持一致
const (
	retryAttempts  = 5
	retryBaseDelay = time.Second
	retryMaxDelay  = 10 * time.Second
)

// RetryPlanner 带重试的规划服务装饰器
// 功能：对临时性错误做指数退避重试，重试耗尽后退化为空结果
// 说明：规划失败永远不会作为错误向上传播，只记录日志
type RetryPlanner struct {
	inner Planner
}

// NewRetryPlanner 包装规划服务
func NewRetryPlanner(inner Planner) *RetryPlanner {
	return &RetryPlanner{inner: inner}
}

// GetItineraries 带重试的行程查询
// 算法说明：
// 1. 最多尝试retryAttempts次
// 2. 临时性错误按1s、2s、4s...指数退避，封顶10s
// 3. 非临时性错误立即放弃
// 4. 全部失败时返回空列表，不返回错误
func (r *RetryPlanner) GetItineraries(ctx context.Context, origin, destination geo.Location,
	departureTime float64, maxTransfers int) ([]*TravelPlan, error) {
	delay := retryBaseDelay
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		plans, err := r.inner.GetItineraries(ctx, origin, destination, departureTime, maxTransfers)
		if err == nil {
			return plans, nil
		}
		lastErr = err
		if !IsTransient(err) {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			log.Errorf("planner query canceled: %v", ctx.Err())
			return nil, nil
		}
		if delay *= 2; delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
	log.Errorf("failed to get itineraries after %d attempts: %v", retryAttempts, lastErr)
	return nil, nil
}

// plannerRequest 远程规划服务的请求体
type plannerRequest struct {
	From          geo.Location `json:"from"`
	To            geo.Location `json:"to"`
	DepartureTime float64      `json:"departure_time"`
	MaxTransfers  int          `json:"max_transfers"`
}

// plannerResponse 远程规划服务的响应体
type plannerResponse struct {
	Itineraries []*TravelPlan `json:"itineraries"`
}

// RemotePlanner HTTP路径规划服务客户端
// 功能：调用外部规划服务（OTP风格）的JSON接口
type RemotePlanner struct {
	url    string
	client *http.Client
}

// NewRemotePlanner 创建远程规划服务客户端
func NewRemotePlanner(url string) *RemotePlanner {
	return &RemotePlanner{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetItineraries 查询行程
// 说明：网络错误、超时与5xx响应包装为TransientError；
// 服务返回空列表表示无路可走，不视为错误
func (p *RemotePlanner) GetItineraries(ctx context.Context, origin, destination geo.Location,
	departureTime float64, maxTransfers int) ([]*TravelPlan, error) {
	body, err := json.Marshal(plannerRequest{
		From:          origin,
		To:            destination,
		DepartureTime: departureTime,
		MaxTransfers:  maxTransfers,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, &TransientError{Err: fmt.Errorf("planner returned %s", resp.Status)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("planner returned %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	var res plannerResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("bad planner response: %w", err)
	}
	if res.Itineraries == nil {
		res.Itineraries = make([]*TravelPlan, 0)
	}
	return res.Itineraries, nil
}
