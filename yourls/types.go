package yourls

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayout 是 YOURLS 返回的日期格式（MySQL DATETIME）。
const dateLayout = "2006-01-02 15:04:05"

// ShortenedURL 表示服务端的一条短链记录，由接口返回后不再修改。
type ShortenedURL struct {
	ShortURL string
	URL      string
	Keyword  string
	Title    string
	Date     time.Time
	IP       string
	Clicks   int64
}

func (s ShortenedURL) String() string {
	return fmt.Sprintf("ShortenedURL(shorturl=%q, url=%q, title=%q, date=%s, ip=%q, clicks=%d, keyword=%q)",
		s.ShortURL, s.URL, s.Title, s.Date.Format(dateLayout), s.IP, s.Clicks, s.Keyword)
}

// DBStats 是整个实例的汇总计数。
type DBStats struct {
	TotalClicks int64
	TotalLinks  int64
}

func (s DBStats) String() string {
	return fmt.Sprintf("DBStats(total_clicks=%d, total_links=%d)", s.TotalClicks, s.TotalLinks)
}

// Filter 是 stats 接口的排序/筛选方式。
type Filter string

const (
	FilterTop    Filter = "top"
	FilterBottom Filter = "bottom"
	FilterRand   Filter = "rand"
	FilterLast   Filter = "last"
)

var validFilters = []Filter{FilterTop, FilterBottom, FilterRand, FilterLast}

// ParseFilter 校验 filter 参数。
// "random" 服务端也接受，这里统一成 "rand"。
func ParseFilter(s string) (Filter, error) {
	if s == "random" {
		s = string(FilterRand)
	}
	for _, f := range validFilters {
		if Filter(s) == f {
			return f, nil
		}
	}
	names := make([]string, len(validFilters))
	for i, f := range validFilters {
		names[i] = string(f)
	}
	return "", fmt.Errorf("%w: filter must be one of %s, got %q", ErrInvalidFilter, strings.Join(names, ", "), s)
}

// flexInt 兼容 "5" 和 5 两种写法：YOURLS 的计数字段大多是字符串。
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse integer %s: %w", b, err)
	}
	*n = flexInt(v)
	return nil
}

// flexString 兼容 errorCode 这种有时是数字、有时是字符串的字段。
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	*s = flexString(strings.TrimSpace(string(b)))
	return nil
}

type linkJSON struct {
	ShortURL  string  `json:"shorturl"`
	URL       string  `json:"url"`
	Keyword   string  `json:"keyword"`
	Title     string  `json:"title"`
	Date      string  `json:"date"`
	Timestamp string  `json:"timestamp"`
	IP        string  `json:"ip"`
	Clicks    flexInt `json:"clicks"`
}

// toShortenedURL 把接口里的链接对象转换成 ShortenedURL。
// shorten 的响应把短链放在对象外面（shorturl 字段），所以允许外部传入覆盖。
func (l linkJSON) toShortenedURL(shortURL string) (ShortenedURL, error) {
	if shortURL == "" {
		shortURL = l.ShortURL
	}
	out := ShortenedURL{
		ShortURL: shortURL,
		URL:      l.URL,
		Keyword:  l.Keyword,
		Title:    l.Title,
		IP:       l.IP,
		Clicks:   int64(l.Clicks),
	}
	raw := l.Date
	if raw == "" {
		raw = l.Timestamp
	}
	if raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return ShortenedURL{}, fmt.Errorf("parse link date %q: %w", raw, err)
		}
		out.Date = t
	}
	return out, nil
}

type statsJSON struct {
	TotalClicks flexInt `json:"total_clicks"`
	TotalLinks  flexInt `json:"total_links"`
}

func (s statsJSON) toDBStats() DBStats {
	return DBStats{TotalClicks: int64(s.TotalClicks), TotalLinks: int64(s.TotalLinks)}
}
