package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/propsales/internal/db"
)

// JSONSetMulti stores multiple JSON documents in a single DoMulti round-trip
// and returns how many were written. An NX write that finds the key already
// present replies nil; it is neither an error nor counted.
func (s *Store) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		path := item.Path
		if path == "" {
			path = "$"
		}
		args := []string{path, string(item.Data)}
		if item.OnlyIfAbsent {
			args = append(args, "NX")
		}
		cmds[i] = s.b().Arbitrary("JSON.SET").Keys(item.Key).Args(args...).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	written := 0
	var firstErr error
	for i, res := range results {
		err := res.Error()
		switch {
		case err == nil:
			written++
		case rueidis.IsRedisNil(err):
		case firstErr == nil:
			firstErr = &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
		}
	}
	return written, firstErr
}

// JSONGetMulti reads whole documents in one DoMulti round-trip. Missing keys
// yield nil entries.
func (s *Store) JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Arbitrary("JSON.GET").Keys(key).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([][]byte, len(results))
	for i, res := range results {
		raw, err := res.ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue
			}
			return nil, &db.Error{Op: db.OpJSONGet, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		if raw != "" {
			out[i] = []byte(raw)
		}
	}
	return out, nil
}
