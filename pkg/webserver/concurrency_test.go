package webserver

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Concurrent requests against a live listener, with routes changing
// while traffic is flowing.
func TestConcurrentRequests(t *testing.T) {
	srv := New(fastShutdown())
	srv.RegisterPath("/api/test", text("ok"))
	require.NoError(t, srv.Listen("127.0.0.1:0", nil))
	defer srv.Close()

	numRequests := 1000
	numWorkers := 50

	var successCount int64
	var errorCount int64
	var wg sync.WaitGroup

	client := &http.Client{
		Timeout: 5 * time.Second,
	}
	url := srv.URL() + "/api/test"

	stop := make(chan struct{})
	var churn sync.WaitGroup
	churn.Add(1)
	go func() {
		defer churn.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			pattern := fmt.Sprintf("/churn/%d", i%10)
			srv.RegisterPrefix(pattern, text("churn"))
			srv.RegisterPrefix(pattern, nil)
		}
	}()

	start := time.Now()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numRequests/numWorkers; j++ {
				resp, err := client.Get(url)
				if err != nil {
					atomic.AddInt64(&errorCount, 1)
					continue
				}
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK && string(body) == "ok" {
					atomic.AddInt64(&successCount, 1)
				} else {
					atomic.AddInt64(&errorCount, 1)
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	churn.Wait()
	elapsed := time.Since(start)

	t.Logf("%d requests in %v (%.0f req/s)", numRequests, elapsed, float64(numRequests)/elapsed.Seconds())
	assert.Equal(t, int64(numRequests), successCount)
	assert.Zero(t, errorCount)
}

func BenchmarkServeHTTP_Exact(b *testing.B) {
	srv := New(nil)
	srv.RegisterPath("/api/test", text("ok"))
	srv.RegisterPrefix("/api/", text("prefix"))

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			w := &discardWriter{header: http.Header{}}
			r, _ := http.NewRequest(http.MethodGet, "http://localhost/api/test", nil)
			srv.ServeHTTP(w, r)
		}
	})
}

func BenchmarkMatch_LongestPrefix(b *testing.B) {
	srv := New(nil)
	for i := 0; i < 100; i++ {
		srv.RegisterPrefix(fmt.Sprintf("/p%d/", i), noop)
	}
	srv.RegisterPrefix("/p42/deep/", noop)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		srv.Match("/p42/deep/file.txt")
	}
}

// discardWriter is an http.ResponseWriter that keeps only the headers.
type discardWriter struct {
	header http.Header
}

func (w *discardWriter) Header() http.Header { return w.header }
func (w *discardWriter) Write(p []byte) (int, error) { return len(p), nil }
func (w *discardWriter) WriteHeader(int) {}
