package yourls

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// fakeYOURLS 记录收到的 query，并用 reply 生成响应。
type fakeYOURLS struct {
	*httptest.Server

	mu      sync.Mutex
	queries []url.Values
	paths   []string
}

func newFakeYOURLS(t *testing.T, reply func(q url.Values) (int, string)) *fakeYOURLS {
	t.Helper()
	f := &fakeYOURLS{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.mu.Lock()
		f.queries = append(f.queries, q)
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()

		status, body := reply(q)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeYOURLS) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeYOURLS) lastQuery(t *testing.T) url.Values {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		t.Fatal("no request received")
	}
	return f.queries[len(f.queries)-1]
}

func replyWith(status int, body string) func(url.Values) (int, string) {
	return func(url.Values) (int, string) { return status, body }
}

func newTestClient(t *testing.T, f *fakeYOURLS) *Client {
	t.Helper()
	c, err := NewClient(Config{APIURL: f.URL, Signature: "secret"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}
