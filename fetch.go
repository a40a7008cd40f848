package provision

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// fetchToWriter streams a GET response body into w, reporting progress as
// bytes arrive. Returns the number of bytes written. The Content-Length
// header drives the BytesTotal field of progress updates; when the server
// omits it, BytesTotal is 0 and progress is indeterminate.
func fetchToWriter(ctx context.Context, client HTTPClient, url, name string, w io.Writer, onProgress func(Progress)) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", name, ErrNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetching %s: status %d: %w", name, resp.StatusCode, ErrNetworkError)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	var reader io.Reader = resp.Body
	if onProgress != nil {
		pr := &progressReader{
			reader: resp.Body,
			onDelta: func(done int64) {
				onProgress(Progress{Name: name, BytesTotal: total, BytesDone: done})
			},
		}
		reader = pr
	}

	written, err := io.Copy(w, reader)
	if err != nil {
		return written, fmt.Errorf("reading %s: %w", name, ErrNetworkError)
	}
	return written, nil
}

// progressReader wraps an io.Reader and reports the cumulative byte count
// as data is read.
type progressReader struct {
	reader  io.Reader
	done    int64
	onDelta func(done int64)
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.done += int64(n)
		if pr.onDelta != nil {
			pr.onDelta(pr.done)
		}
	}
	return
}
