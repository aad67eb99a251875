package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmiddleton/schoolpitch/internal/errors"
	"github.com/hmiddleton/schoolpitch/internal/logging"
)

const testFinancialCSV = `urn,school_name,status,total_teaching_support_costs,agency_supply_costs,total_pupils,total_expenditure
100001,Test Primary,success,550000,25000,100,900000
100002,Borderline Academy,success,499999,,200,700000
100003,Failed Scrape School,error,999999,,300,1000000
`

const testDirectoryCSV = `URN,EstablishmentName,LA (name),Street,Town,Postcode,TypeOfEstablishment (name),PhaseOfEducation (name),NumberOfPupils,TelephoneNum,HeadTitle (name),HeadFirstName,HeadLastName
100001,Test Primary School,Camden,1 High Street,London,NW1 1AA,Community school,Primary,200,2071234567,Ms,Jane,Smith
100005,Directory Only School,Islington,2 Low Road,London,N1 2BB,Academy,Secondary,800,2081234567,Mr,Sam,Patel
`

const testSENDCSV = `URN,Total pupils,SEN support,EHC plan,SEN unit,Resourced provision
100001,100,20,10,1,0
`

// waitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func waitForReady(ctx context.Context, endpoint string) error {
	timeout := 1 * time.Second
	client := http.Client{}
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			endpoint,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(250 * time.Millisecond)
		}
	}
}

// testLookupEnv configures the server with fixture CSVs, an in-memory
// session store, no text-generation key and a report search endpoint that
// refuses connections.
func testLookupEnv(t *testing.T) func(string) (string, bool) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	env := map[string]string{
		"SCHOOLPITCH_ADDR":              "localhost:0",
		"SCHOOLPITCH_PPROF_PORT":        ":0",
		"SCHOOLPITCH_SQLITE_URL":        ":memory:",
		"SCHOOLPITCH_FINANCIAL_CSV":     write("financial.csv", testFinancialCSV),
		"SCHOOLPITCH_DIRECTORY_CSV":     write("directory.csv", testDirectoryCSV),
		"SCHOOLPITCH_SEND_CSV":          write("send.csv", testSENDCSV),
		"SCHOOLPITCH_OFSTED_SEARCH_URL": "http://127.0.0.1:1/search",
	}
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

type testServer struct {
	url    string
	client http.Client
}

// startTestServer starts the test server, waits for it to be ready, and returns the server URL for testing.
func startTestServer(t *testing.T, w io.Writer, lookupEnv func(string) (string, bool)) testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// We need to grab the dynamically allocated port from the log output.
	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "Addr" {
				addrCh <- a.Value.String()
			}
			return a
		},
	})))

	// Start the server and wait for it to be ready.
	go func() {
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel()
			assert.NoError(t, err)
		}
	}()
	select {
	case <-ctx.Done():
		t.Fatal("server failed to start")
		return testServer{}
	case addr := <-addrCh:
		serverURL := fmt.Sprintf("http://%s", addr)
		if err := waitForReady(ctx, fmt.Sprintf("%s/api/healthy", serverURL)); err != nil {
			require.NoError(t, err)
		}
		jar, err := newUnsafeCookieJar()
		require.NoError(t, err)
		return testServer{
			url:    serverURL,
			client: http.Client{Jar: jar},
		}
	}
}

// Get fetches a URL and returns the response.
func (s *testServer) Get(t *testing.T, urlPath string) *http.Response {
	t.Helper()
	resp, err := s.client.Get(s.url + urlPath)
	require.NoError(t, err)
	return resp
}

// Do sends a request with the given method, optionally carrying a CSRF token
// header for the session-protected endpoints.
func (s *testServer) Do(t *testing.T, method, urlPath, csrfToken string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.url+urlPath, nil)
	require.NoError(t, err)
	if csrfToken != "" {
		req.Header.Set("X-CSRF-Token", csrfToken)
	}
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	return resp
}
