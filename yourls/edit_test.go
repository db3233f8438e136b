package yourls

import (
	"errors"
	"testing"
)

func TestDelete(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(200, `{"statusCode":200,"message":"success: deleted"}`))
		c := newTestClient(t, f)

		if err := c.Delete(t.Context(), "abc"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if q := f.lastQuery(t); q.Get("action") != "delete" || q.Get("shorturl") != "abc" {
			t.Fatalf("query: got %v", q)
		}
	})

	t.Run("not found", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(404, `{"errorCode":404,"message":"error: not found"}`))
		c := newTestClient(t, f)

		err := c.Delete(t.Context(), "abc")
		var apiErr *Error
		if !errors.As(err, &apiErr) || !errors.Is(err, ErrNotFound) {
			t.Fatalf("err: got %v, want ErrNotFound", err)
		}
		if apiErr.Keyword != "abc" {
			t.Fatalf("Keyword: got %q, want %q", apiErr.Keyword, "abc")
		}
		if got, want := err.Error(), "short URL abc does not exist"; got != want {
			t.Fatalf("Error(): got %q, want %q", got, want)
		}
		if apiErr.StatusCode != 404 || apiErr.Body == "" {
			t.Fatalf("http context: got status %d body %q", apiErr.StatusCode, apiErr.Body)
		}
	})

	t.Run("not found with http 200", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(200, `{"errorCode":404,"statusCode":404,"message":"error: not found"}`))
		c := newTestClient(t, f)

		err := c.Delete(t.Context(), "abc")
		var apiErr *Error
		if !errors.As(err, &apiErr) || !errors.Is(err, ErrNotFound) {
			t.Fatalf("err: got %v, want ErrNotFound", err)
		}
		if apiErr.Keyword != "abc" {
			t.Fatalf("Keyword: got %q, want %q", apiErr.Keyword, "abc")
		}
	})

	t.Run("statusCode alone signals failure", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(200, `{"statusCode":"404","message":"not found"}`))
		c := newTestClient(t, f)

		if err := c.Delete(t.Context(), "abc"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err: got %v, want ErrNotFound", err)
		}
	})

	t.Run("not found in 200 body", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(200, `{"status":"fail","message":"not found"}`))
		c := newTestClient(t, f)

		err := c.Delete(t.Context(), "abc")
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Kind != ErrNotFound || apiErr.Keyword != "abc" {
			t.Fatalf("err: got %v, want NotFound(abc)", err)
		}
	})

	t.Run("other http error unchanged", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(403, `{"errorCode":403,"message":"Please log in"}`))
		c := newTestClient(t, f)

		err := c.Delete(t.Context(), "abc")
		if !errors.Is(err, ErrHTTP) {
			t.Fatalf("err: got %v, want ErrHTTP", err)
		}
	})
}

func TestGetURL(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(200, `{"statusCode":200,"message":"success","keyword":"abc"}`))
		c := newTestClient(t, f)

		got, err := c.GetURL(t.Context(), "http://google.com")
		if err != nil {
			t.Fatalf("GetURL: %v", err)
		}
		if got != "abc" {
			t.Fatalf("keyword: got %q, want %q", got, "abc")
		}
	})

	t.Run("not found", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(404, `{"errorCode":404,"message":"error: not found"}`))
		c := newTestClient(t, f)

		_, err := c.GetURL(t.Context(), "http://google.com")
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Kind != ErrNotFound {
			t.Fatalf("err: got %v, want ErrNotFound", err)
		}
		if apiErr.URL != "http://google.com" || apiErr.Keyword != "" {
			t.Fatalf("context: got url %q keyword %q", apiErr.URL, apiErr.Keyword)
		}
		if got, want := err.Error(), "URL http://google.com does not exist"; got != want {
			t.Fatalf("Error(): got %q, want %q", got, want)
		}
	})
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name      string
		opts      UpdateOptions
		wantTitle string
		wantSent  bool
	}{
		{"no title", UpdateOptions{}, "", false},
		{"explicit title", UpdateOptions{Title: "New"}, "New", true},
		{"keep current title", UpdateOptions{UseCurrentTitle: true}, "keep", true},
		{"explicit title wins", UpdateOptions{Title: "New", UseCurrentTitle: true}, "New", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeYOURLS(t, replyWith(200, `{"statusCode":200,"message":"success"}`))
			c := newTestClient(t, f)

			if err := c.Update(t.Context(), "abc", "http://new.example", tt.opts); err != nil {
				t.Fatalf("Update: %v", err)
			}
			q := f.lastQuery(t)
			if q.Get("action") != "update" || q.Get("shorturl") != "abc" || q.Get("url") != "http://new.example" {
				t.Fatalf("query: got %v", q)
			}
			_, sent := q["title"]
			if sent != tt.wantSent || q.Get("title") != tt.wantTitle {
				t.Fatalf("title: got (%q, %v), want (%q, %v)", q.Get("title"), sent, tt.wantTitle, tt.wantSent)
			}
		})
	}

	t.Run("not found", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(404, `{"errorCode":404,"message":"error: not found"}`))
		c := newTestClient(t, f)

		err := c.Update(t.Context(), "abc", "http://new.example", UpdateOptions{})
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Kind != ErrNotFound || apiErr.Keyword != "abc" {
			t.Fatalf("err: got %v, want NotFound(abc)", err)
		}
	})
}

func TestChangeKeyword(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(200, `{"statusCode":200,"message":"success"}`))
		c := newTestClient(t, f)

		err := c.ChangeKeyword(t.Context(), "x", ChangeKeywordOptions{OldKeyword: "old", UseCurrentTitle: true})
		if err != nil {
			t.Fatalf("ChangeKeyword: %v", err)
		}
		q := f.lastQuery(t)
		if q.Get("action") != "change_keyword" || q.Get("newshorturl") != "x" || q.Get("oldshorturl") != "old" || q.Get("title") != "keep" {
			t.Fatalf("query: got %v", q)
		}
		if _, ok := q["url"]; ok {
			t.Fatal("url should be omitted")
		}
	})

	t.Run("already exists", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(400, `{"errorCode":400,"message":"error: already exists"}`))
		c := newTestClient(t, f)

		err := c.ChangeKeyword(t.Context(), "x", ChangeKeywordOptions{OldKeyword: "old"})
		var apiErr *Error
		if !errors.As(err, &apiErr) || !errors.Is(err, ErrKeywordExists) {
			t.Fatalf("err: got %v, want ErrKeywordExists", err)
		}
		if apiErr.Keyword != "x" {
			t.Fatalf("Keyword: got %q, want %q", apiErr.Keyword, "x")
		}
	})

	t.Run("already exists with http 200", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(200, `{"errorCode":400,"statusCode":400,"message":"error: already exists"}`))
		c := newTestClient(t, f)

		err := c.ChangeKeyword(t.Context(), "x", ChangeKeywordOptions{OldKeyword: "old"})
		var apiErr *Error
		if !errors.As(err, &apiErr) || !errors.Is(err, ErrKeywordExists) || apiErr.Keyword != "x" {
			t.Fatalf("err: got %v, want KeywordExists(x)", err)
		}
	})

	t.Run("not found with http 200", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(200, `{"errorCode":404,"statusCode":404,"message":"error: not found"}`))
		c := newTestClient(t, f)

		err := c.ChangeKeyword(t.Context(), "x", ChangeKeywordOptions{OldKeyword: "old"})
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Kind != ErrNotFound || apiErr.Keyword != "x" {
			t.Fatalf("err: got %v, want NotFound(x)", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		f := newFakeYOURLS(t, replyWith(404, `{"errorCode":404,"message":"error: not found"}`))
		c := newTestClient(t, f)

		err := c.ChangeKeyword(t.Context(), "x", ChangeKeywordOptions{URL: "http://google.com"})
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Kind != ErrNotFound || apiErr.Keyword != "x" {
			t.Fatalf("err: got %v, want NotFound(x)", err)
		}
	})
}
