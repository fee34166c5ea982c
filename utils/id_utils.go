package utils

import (
	"strconv"
	"sync"
	"time"
)

var (
	idMu   sync.Mutex
	lastID int64
)

// NewTimestampID 生成毫秒时间戳字符串ID。
// 进程内单调递增且唯一，可按创建时间排序；时钟回拨时退化为递增计数，
// 因此调用方不能假设ID精确编码了创建时间。
func NewTimestampID() string {
	idMu.Lock()
	defer idMu.Unlock()

	now := time.Now().UnixMilli()
	if now <= lastID {
		now = lastID + 1
	}
	lastID = now

	return strconv.FormatInt(now, 10)
}
