package bulk

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// seenSet 判断 URL 是否在本次导入中出现过。
// 布隆过滤器说“不存在”时一定不存在，直接跳过精确查找；
// 说“可能存在”时再查 map 确认，避免误判丢掉 URL。
type seenSet struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// newSeenSet expectedItems: 预期元素数量；falsePositiveRate 建议 0.01
func newSeenSet(expectedItems uint, falsePositiveRate float64) *seenSet {
	if expectedItems == 0 {
		expectedItems = 1
	}
	return &seenSet{
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
		exact:  make(map[string]struct{}, expectedItems),
	}
}

// Add 记录 s，返回它之前是否已经出现过。
func (s *seenSet) Add(v string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := false
	if s.filter.TestString(v) {
		_, seen = s.exact[v]
	}
	if !seen {
		s.filter.AddString(v)
		s.exact[v] = struct{}{}
	}
	return seen
}
