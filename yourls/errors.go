package yourls

import (
	"errors"
	"fmt"
)

// 本地错误：在发出任何请求之前返回。
var (
	ErrConfig        = errors.New("yourls: invalid client configuration")
	ErrInvalidFilter = errors.New("yourls: invalid stats filter")
)

// ErrConfig 的细分，errors.Is(err, ErrConfig) 对它们同样成立。
var (
	ErrMissingAPIURL         = fmt.Errorf("%w: api url is empty", ErrConfig)
	ErrCredentialConflict    = fmt.Errorf("%w: conflicting credentials", ErrConfig)
	ErrNonceWithoutSignature = fmt.Errorf("%w: nonce life requires signature", ErrConfig)
)

// 服务端错误的种类。*Error.Kind 一定是其中之一，调用方用 errors.Is 判断。
var (
	ErrAPI           = errors.New("yourls: api error")
	ErrKeywordExists = errors.New("yourls: keyword already exists")
	ErrURLExists     = errors.New("yourls: url already exists")
	ErrNoURL         = errors.New("yourls: url missing")
	ErrNoLoop        = errors.New("yourls: cannot shorten a shortened url")
	ErrNotFound      = errors.New("yourls: not found")
	ErrHTTP          = errors.New("yourls: http error")
)

// Error 是服务端返回失败时的统一错误类型。
//
// 不同 Kind 使用的字段：
//   - ErrKeywordExists: Keyword
//   - ErrURLExists: Link（已存在的短链）
//   - ErrNotFound: Keyword 或 URL（由具体操作填写）
//   - ErrHTTP: StatusCode, Body
//   - ErrAPI: Code
type Error struct {
	Kind    error
	Message string
	Code    string

	Keyword string
	URL     string
	Link    *ShortenedURL

	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrKeywordExists:
		if e.Keyword != "" {
			return fmt.Sprintf("keyword %s already exists", e.Keyword)
		}
	case ErrURLExists:
		if e.Message == "" && e.Link != nil {
			return fmt.Sprintf("%s already exists as %s", e.Link.URL, e.Link.ShortURL)
		}
	case ErrNotFound:
		if e.URL != "" {
			return fmt.Sprintf("URL %s does not exist", e.URL)
		}
		if e.Keyword != "" {
			return fmt.Sprintf("short URL %s does not exist", e.Keyword)
		}
	case ErrHTTP:
		if e.Message != "" {
			return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
		}
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap 同时暴露具体种类和 ErrAPI，
// 这样 errors.Is(err, ErrAPI) 能匹配所有应用层失败（HTTP 层失败除外）。
func (e *Error) Unwrap() []error {
	if e.Kind == ErrHTTP || e.Kind == ErrAPI {
		return []error{e.Kind}
	}
	return []error{e.Kind, ErrAPI}
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// notFoundFor 给 NotFound 补上调用方才知道的上下文，其他错误原样返回。
func notFoundFor(err error, keyword, url string) error {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == ErrNotFound {
		apiErr.Keyword = keyword
		apiErr.URL = url
	}
	return err
}
