package cli

import (
	"context"
	"errors"
	"fmt"

	"yourls.local/internal/app/events"
	"yourls.local/yourls"
)

func runShorten(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "shorten")
	keyword := fs.String("keyword", "", "custom keyword")
	title := fs.String("title", "", "custom title")
	simple := fs.Bool("simple", false, "print only the short URL; an existing link is not an error")
	onlyNew := fs.Bool("only-new", false, `omit the "New: " prefix`)
	pos, err := parseCommand(fs, args, 1, 1)
	if err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}

	link, err := api.Shorten(ctx, pos[0], *keyword, *title)
	if err != nil {
		var apiErr *yourls.Error
		if *simple && errors.As(err, &apiErr) && apiErr.Kind == yourls.ErrURLExists && apiErr.Link != nil {
			fmt.Fprintf(a.env.Stdout, "Exists: %s\n", apiErr.Link.ShortURL)
			return nil
		}
		return err
	}

	out := link.String()
	if *simple {
		out = link.ShortURL
	}
	if !*onlyNew {
		out = "New: " + out
	}
	fmt.Fprintln(a.env.Stdout, out)
	return nil
}

func runExpand(ctx context.Context, a *app, args []string) error {
	pos, err := parseCommand(newFlagSet(a, "expand"), args, 1, 1)
	if err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}
	longURL, err := api.Expand(ctx, pos[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.env.Stdout, longURL)
	return nil
}

func runURLStats(ctx context.Context, a *app, args []string) error {
	pos, err := parseCommand(newFlagSet(a, "url-stats"), args, 1, 1)
	if err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}
	link, err := api.URLStats(ctx, pos[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.env.Stdout, link)
	return nil
}

func runStats(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "stats")
	filter := fs.String("filter", "top", "top, bottom, rand or last")
	limit := fs.Int("limit", 10, "number of links")
	start := fs.Int("start", -1, "offset (omitted when negative)")
	if _, err := parseCommand(fs, args, 0, 0); err != nil {
		return err
	}
	if _, err := yourls.ParseFilter(*filter); err != nil {
		return usagef("%v", err)
	}
	api, err := a.api()
	if err != nil {
		return err
	}

	q := yourls.StatsQuery{Filter: *filter, Limit: *limit}
	if *start >= 0 {
		q.Start = start
	}
	links, stats, err := api.Stats(ctx, q)
	if err != nil {
		return err
	}
	for _, l := range links {
		fmt.Fprintln(a.env.Stdout, l)
	}
	fmt.Fprintln(a.env.Stdout, stats)
	return nil
}

func runDBStats(ctx context.Context, a *app, args []string) error {
	if _, err := parseCommand(newFlagSet(a, "db-stats"), args, 0, 0); err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}
	stats, err := api.DBStats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.env.Stdout, stats)
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	pos, err := parseCommand(newFlagSet(a, "delete"), args, 1, 1)
	if err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}
	if err := api.Delete(ctx, pos[0]); err != nil {
		return err
	}
	a.record(ctx, events.LinkEvent{Kind: events.KindDeleted, Keyword: pos[0]})
	fmt.Fprintf(a.env.Stdout, "Deleted: %s\n", pos[0])
	return nil
}

func runGetURL(ctx context.Context, a *app, args []string) error {
	pos, err := parseCommand(newFlagSet(a, "geturl"), args, 1, 1)
	if err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}
	keyword, err := api.GetURL(ctx, pos[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.env.Stdout, keyword)
	return nil
}

func runUpdate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "update")
	title := fs.String("title", "", "new title")
	keep := fs.Bool("keep-title", false, "keep the current title")
	pos, err := parseCommand(fs, args, 2, 2)
	if err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}
	if err := api.Update(ctx, pos[0], pos[1], yourls.UpdateOptions{Title: *title, UseCurrentTitle: *keep}); err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Updated: %s\n", pos[0])
	return nil
}

func runChangeKeyword(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "change-keyword")
	old := fs.String("old", "", "current keyword")
	longURL := fs.String("url", "", "long URL (alternative to -old)")
	title := fs.String("title", "", "new title")
	keep := fs.Bool("keep-title", false, "keep the current title")
	pos, err := parseCommand(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if *old == "" && *longURL == "" {
		return usagef("one of -old or -url is required")
	}
	api, err := a.api()
	if err != nil {
		return err
	}
	err = api.ChangeKeyword(ctx, pos[0], yourls.ChangeKeywordOptions{
		OldKeyword:      *old,
		URL:             *longURL,
		Title:           *title,
		UseCurrentTitle: *keep,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Changed: %s\n", pos[0])
	return nil
}
