package suggest

import (
	"context"
	"net/url"

	"github.com/valyala/fastjson"

	"finconsole/internal/upstream"
)

// UpstreamFetch performs the suggestion lookup against the backend. The
// response is parsed with fastjson: this runs on the typing hot path and a
// full unmarshal per keystroke burst is wasted work.
func UpstreamFetch(client *upstream.Client, path string) FetchFunc {
	var parsers fastjson.ParserPool
	return func(ctx context.Context, query string) ([]Item, error) {
		q := url.Values{}
		q.Set("q", query)
		body, err := client.Get(ctx, path, q)
		if err != nil {
			return nil, err
		}

		p := parsers.Get()
		defer parsers.Put(p)
		v, err := p.ParseBytes(body)
		if err != nil {
			return nil, err
		}
		arr := v.GetArray()
		if arr == nil {
			// Some endpoints wrap the list in a data envelope.
			arr = v.GetArray("data")
		}
		items := make([]Item, 0, len(arr))
		for _, e := range arr {
			items = append(items, Item{
				ID:         string(e.GetStringBytes("id")),
				Text:       string(e.GetStringBytes("text")),
				Category:   string(e.GetStringBytes("category")),
				Confidence: e.GetFloat64("confidence"),
			})
		}
		return items, nil
	}
}
