package yourls

import "context"

// Deleter 需要服务端启用 delete 插件（API action "delete"）。
type Deleter interface {
	Delete(ctx context.Context, short string) error
}

type deleter struct {
	req Requester
}

// Delete 删除短链。不存在时返回 ErrNotFound，Keyword 为 short。
func (d deleter) Delete(ctx context.Context, short string) error {
	_, err := d.req.Request(ctx, "delete", Params{"shorturl": short})
	return notFoundFor(err, short, "")
}
