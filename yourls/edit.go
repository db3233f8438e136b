package yourls

import (
	"context"
	"errors"
)

// Editor 需要服务端启用 "API edit url" 插件（geturl/update/change_keyword）。
type Editor interface {
	GetURL(ctx context.Context, longURL string) (string, error)
	Update(ctx context.Context, shortURL, longURL string, opts UpdateOptions) error
	ChangeKeyword(ctx context.Context, newKeyword string, opts ChangeKeywordOptions) error
}

// keepTitle 告诉插件保留当前标题。
const keepTitle = "keep"

type UpdateOptions struct {
	Title string
	// UseCurrentTitle 且 Title 为空时保留原标题
	UseCurrentTitle bool
}

type ChangeKeywordOptions struct {
	OldKeyword      string
	URL             string
	Title           string
	UseCurrentTitle bool
}

func titleParam(title string, useCurrent bool) string {
	if title == "" && useCurrent {
		return keepTitle
	}
	return title
}

type editor struct {
	req Requester
}

// GetURL 根据长链接查 keyword。不存在时返回 ErrNotFound，URL 为 longURL。
func (e editor) GetURL(ctx context.Context, longURL string) (string, error) {
	resp, err := e.req.Request(ctx, "geturl", Params{"url": longURL})
	if err != nil {
		return "", notFoundFor(err, "", longURL)
	}
	return resp.data.Keyword, nil
}

func (e editor) Update(ctx context.Context, shortURL, longURL string, opts UpdateOptions) error {
	_, err := e.req.Request(ctx, "update", Params{
		"shorturl": shortURL,
		"url":      longURL,
		"title":    titleParam(opts.Title, opts.UseCurrentTitle),
	})
	return notFoundFor(err, shortURL, "")
}

// ChangeKeyword 把短链改成 newKeyword。
// newKeyword 已被占用时返回 ErrKeywordExists，不存在时返回 ErrNotFound，两者的 Keyword 都是 newKeyword。
func (e editor) ChangeKeyword(ctx context.Context, newKeyword string, opts ChangeKeywordOptions) error {
	_, err := e.req.Request(ctx, "change_keyword", Params{
		"newshorturl": newKeyword,
		"oldshorturl": opts.OldKeyword,
		"url":         opts.URL,
		"title":       titleParam(opts.Title, opts.UseCurrentTitle),
	})
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && isAlreadyExists(apiErr.Message) {
		return &Error{
			Kind:       ErrKeywordExists,
			Message:    apiErr.Message,
			Code:       apiErr.Code,
			Keyword:    newKeyword,
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.Body,
		}
	}
	return notFoundFor(err, newKeyword, "")
}
