package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"event-ticketing/internal/model"
	"event-ticketing/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// ReserveScript 扣減庫存 (使用Lua腳本確保原子性)
// 1. 檢查票種存在且 ACTIVE
// 2. 檢查庫存
// 3. 執行扣減，歸零時標記 SOLD_OUT
const ReserveScript = `
	local key = KEYS[1]
	local request_qty = tonumber(ARGV[1])

	local info = redis.call('HMGET', key, 'status', 'available')
	local status = info[1]
	local available = info[2]

	if not status or not available then
		return {-3, 0} -- 錯誤：票種資訊未預熱
	end

	if status ~= 'ACTIVE' then
		return {-2, tonumber(available)} -- 錯誤：票種非販售狀態
	end

	if tonumber(available) < request_qty then
		return {-1, tonumber(available)} -- 錯誤：庫存不足
	end

	local left = redis.call('HINCRBY', key, 'available', -request_qty)
	if left == 0 then
		redis.call('HSET', key, 'status', 'SOLD_OUT')
	end

	return {1, left}
`

// ReleaseScript 回補庫存 (使用Lua腳本確保原子性)，上限夾在 total，
// SOLD_OUT 離開零庫存時轉回 ACTIVE
const ReleaseScript = `
	local key = KEYS[1]
	local release_qty = tonumber(ARGV[1])

	local info = redis.call('HMGET', key, 'status', 'available', 'total')
	local status = info[1]
	local available = info[2]
	local total = info[3]

	if not status or not available or not total then
		return -3 -- 錯誤：票種資訊未預熱
	end

	local newval = tonumber(available) + release_qty
	if newval > tonumber(total) then
		newval = tonumber(total)
	end
	redis.call('HSET', key, 'available', newval)

	if status == 'SOLD_OUT' and newval > 0 then
		redis.call('HSET', key, 'status', 'ACTIVE')
	end

	return 1
`

// RedisTicketInventory Redis 實作：多副本部署時共用同一份計數器，
// Redis 單執行緒執行 Lua，對同一 key 的操作天然序列化
type RedisTicketInventory struct {
	client *redis.Client
}

func NewRedisTicketInventory(client *redis.Client) *RedisTicketInventory {
	return &RedisTicketInventory{client: client}
}

// 票種庫存 key
func (r *RedisTicketInventory) infoKey(ticketTypeID uuid.UUID) string {
	return fmt.Sprintf("ticket_type:%s:info", ticketTypeID)
}

func (r *RedisTicketInventory) WarmUp(ctx context.Context, tt *model.TicketType) error {
	key := r.infoKey(tt.ID)
	return r.client.HSet(ctx, key, map[string]interface{}{
		"event_id":         tt.EventID.String(),
		"name":             tt.Name,
		"price":            tt.Price.String(),
		"max_per_customer": tt.MaxPerCustomer,
		"total":            tt.TotalQuantity,
		"available":        tt.AvailableQuantity,
		"sales_start":      unixOrZero(tt.SalesStart),
		"sales_end":        unixOrZero(tt.SalesEnd),
		"status":           string(tt.Status),
	}).Err()
}

func (r *RedisTicketInventory) Reserve(ctx context.Context, ticketTypeID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, apperrors.ErrInvalidInput
	}

	result, err := r.client.Eval(ctx, ReserveScript, []string{r.infoKey(ticketTypeID)}, quantity).Result()
	if err != nil {
		return 0, err
	}

	resSlice := result.([]interface{})
	code := resSlice[0].(int64)
	remaining := int(resSlice[1].(int64))

	switch code {
	case 1:
		return remaining, nil
	case -1:
		return remaining, apperrors.ErrInsufficientStock
	case -2:
		return remaining, apperrors.ErrTicketTypeNotAvailable
	case -3:
		return 0, apperrors.ErrTicketTypeNotFound
	default:
		return 0, errors.New("unexpected reserve result")
	}
}

func (r *RedisTicketInventory) Release(ctx context.Context, ticketTypeID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperrors.ErrInvalidInput
	}

	result, err := r.client.Eval(ctx, ReleaseScript, []string{r.infoKey(ticketTypeID)}, quantity).Result()
	if err != nil {
		return err
	}

	code, ok := result.(int64)
	if !ok {
		return errors.New("unexpected release result")
	}

	switch code {
	case 1:
		return nil
	case -3:
		return apperrors.ErrTicketTypeNotFound
	default:
		return errors.New("unexpected release result")
	}
}

func (r *RedisTicketInventory) GetTicketType(ctx context.Context, ticketTypeID uuid.UUID) (TicketTypeInfo, error) {
	key := r.infoKey(ticketTypeID)
	result, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return TicketTypeInfo{}, err
	}

	// 檢查 key 是否存在
	if len(result) == 0 {
		return TicketTypeInfo{}, apperrors.ErrTicketTypeNotFound
	}

	eventID, err := uuid.Parse(result["event_id"])
	if err != nil {
		return TicketTypeInfo{}, fmt.Errorf("invalid event_id: %v", err)
	}

	price, err := decimal.NewFromString(result["price"])
	if err != nil {
		return TicketTypeInfo{}, fmt.Errorf("invalid price: %v", err)
	}

	maxPerCustomer, err := strconv.Atoi(result["max_per_customer"])
	if err != nil {
		return TicketTypeInfo{}, fmt.Errorf("invalid max_per_customer: %v", err)
	}

	total, err := strconv.Atoi(result["total"])
	if err != nil {
		return TicketTypeInfo{}, fmt.Errorf("invalid total: %v", err)
	}

	available, err := strconv.Atoi(result["available"])
	if err != nil {
		return TicketTypeInfo{}, fmt.Errorf("invalid available: %v", err)
	}

	// 舊資料可能沒有販售時窗欄位，缺值視為不設限
	salesStart, _ := strconv.ParseInt(result["sales_start"], 10, 64)
	salesEnd, _ := strconv.ParseInt(result["sales_end"], 10, 64)

	return TicketTypeInfo{
		ID:                ticketTypeID,
		EventID:           eventID,
		Name:              result["name"],
		Price:             price,
		MaxPerCustomer:    maxPerCustomer,
		TotalQuantity:     total,
		AvailableQuantity: available,
		SalesStart:        salesStart,
		SalesEnd:          salesEnd,
		Status:            model.TicketTypeStatus(result["status"]),
	}, nil
}
