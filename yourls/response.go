package yourls

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// apiResponse 覆盖了所有 action 用到的字段，不同 action 只会填其中一部分。
type apiResponse struct {
	Status     string     `json:"status"`
	Code       string     `json:"code"`
	Message    string     `json:"message"`
	ErrorCode  flexString `json:"errorCode"`
	StatusCode flexString `json:"statusCode"`

	// shorturl 成功/error:url 时是对象，其他插件里可能是字符串
	URL      json.RawMessage `json:"url"`
	ShortURL string          `json:"shorturl"`
	LongURL  string          `json:"longurl"`
	Keyword  string          `json:"keyword"`
	Title    string          `json:"title"`

	Link    *linkJSON       `json:"link"`
	Stats   *statsJSON      `json:"stats"`
	DBStats *statsJSON      `json:"db-stats"`
	Links   json.RawMessage `json:"links"`
}

// translate 判断一次调用是成功还是失败。
// 失败统一返回 *Error；params 是实际发送的参数，用来补充 keyword 等上下文。
func translate(status int, body []byte, params map[string]string) (*Response, error) {
	var data apiResponse
	jsonErr := json.Unmarshal(body, &data)

	if jsonErr == nil && data.Status == "fail" {
		return nil, failure(data, params, status, body)
	}

	if status < 200 || status > 299 {
		if jsonErr != nil || data.Message == "" {
			return nil, &Error{Kind: ErrHTTP, StatusCode: status, Body: string(body)}
		}
		var kind error
		switch {
		case isNotFound(data.Message):
			kind = ErrNotFound
		case isMissingURL(data.Message):
			kind = ErrNoURL
		}
		if kind != nil {
			return nil, &Error{
				Kind:       kind,
				Message:    data.Message,
				Code:       string(data.ErrorCode),
				StatusCode: status,
				Body:       string(body),
			}
		}
		return nil, &Error{
			Kind:       ErrHTTP,
			Message:    data.Message,
			Code:       string(data.ErrorCode),
			StatusCode: status,
			Body:       string(body),
		}
	}

	if jsonErr != nil {
		return nil, fmt.Errorf("decode response: %w", jsonErr)
	}
	// 有些插件失败时仍返回 HTTP 200，只在 body 里带 errorCode / statusCode
	if data.signalsFailure() {
		return nil, failure(data, params, status, body)
	}
	return &Response{StatusCode: status, Body: body, data: data}, nil
}

func failure(data apiResponse, params map[string]string, status int, body []byte) error {
	msg := data.Message
	if data.Code == "" && data.ErrorCode != "" {
		data.Code = string(data.ErrorCode)
	}
	switch {
	case data.Code == "error:keyword":
		return &Error{Kind: ErrKeywordExists, Message: msg, Code: data.Code, Keyword: params["keyword"]}
	case data.Code == "error:url":
		e := &Error{Kind: ErrURLExists, Message: msg, Code: data.Code}
		if link, err := data.existingLink(); err == nil {
			e.Link = &link
		}
		return e
	case data.Code == "error:nourl" || isMissingURL(msg):
		return &Error{Kind: ErrNoURL, Message: msg, Code: data.Code}
	case data.Code == "error:noloop":
		return &Error{Kind: ErrNoLoop, Message: msg, Code: data.Code}
	case isNotFound(msg):
		return &Error{Kind: ErrNotFound, Message: msg, Code: data.Code}
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d: %s", status, body)
	}
	return &Error{Kind: ErrAPI, Message: msg, Code: data.Code}
}

// existingLink 从 shorturl/error:url 响应里构造 ShortenedURL（url 对象 + 外层 shorturl）。
func (r apiResponse) existingLink() (ShortenedURL, error) {
	var l linkJSON
	if len(r.URL) == 0 {
		return ShortenedURL{}, fmt.Errorf("response has no url object")
	}
	if err := json.Unmarshal(r.URL, &l); err != nil {
		return ShortenedURL{}, fmt.Errorf("decode url object: %w", err)
	}
	return l.toShortenedURL(r.ShortURL)
}

// links 解析 stats 的 links 字段：{"link_1": {...}, "link_2": {...}}。
// 空结果时 PHP 会输出 []，按空列表处理。
func (r apiResponse) links() ([]ShortenedURL, error) {
	raw := bytes.TrimSpace(r.Links)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []ShortenedURL{}, nil
	}

	var entries []linkJSON
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decode links: %w", err)
		}
	} else {
		byKey := map[string]linkJSON{}
		if err := json.Unmarshal(raw, &byKey); err != nil {
			return nil, fmt.Errorf("decode links: %w", err)
		}
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })
		for _, k := range keys {
			entries = append(entries, byKey[k])
		}
	}

	out := make([]ShortenedURL, 0, len(entries))
	for _, e := range entries {
		link, err := e.toShortenedURL("")
		if err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, nil
}

// naturalLess 让 link_2 排在 link_10 前面。
func naturalLess(a, b string) bool {
	pa, na := splitNumericSuffix(a)
	pb, nb := splitNumericSuffix(b)
	if pa != pb || na < 0 || nb < 0 {
		return a < b
	}
	return na < nb
}

func splitNumericSuffix(s string) (string, int) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, -1
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, -1
	}
	return s[:i], n
}

func normalizeMessage(msg string) string {
	m := strings.ToLower(strings.TrimSpace(msg))
	m = strings.TrimPrefix(m, "error:")
	return strings.TrimSpace(m)
}

// signalsFailure 判断 2xx 响应体本身是否表示失败：带非空 errorCode，或 statusCode 不是 2xx。
func (r apiResponse) signalsFailure() bool {
	if code := string(r.ErrorCode); code != "" && code != "null" {
		return true
	}
	sc := strings.TrimSpace(string(r.StatusCode))
	if sc == "" || sc == "null" {
		return false
	}
	n, err := strconv.Atoi(sc)
	return err == nil && (n < 200 || n > 299)
}

func isNotFound(msg string) bool { return normalizeMessage(msg) == "not found" }

func isAlreadyExists(msg string) bool { return normalizeMessage(msg) == "already exists" }

func isMissingURL(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "missing") && strings.Contains(m, "url")
}
