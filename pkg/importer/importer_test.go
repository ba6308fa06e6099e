package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/braunma/steelconnect-import/pkg/client"
	"github.com/braunma/steelconnect-import/pkg/loader"
	"github.com/braunma/steelconnect-import/pkg/models"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

const testHeader = "name,longname,tags,street_address,city,country,timezone,zone_name,zone_ip,vlan,internet_ip,internet_gw,wan_name,wan_ip,wan_gw"

const testRow = "siteA,Site A,tag1,1 Main St,Springfield,US,America/Chicago,zoneA,10.0.0.1,100,1.2.3.4,1.2.3.1,wan1,5.6.7.8,5.6.7.1"

// fakeAPI records every call and fails on demand
type fakeAPI struct {
	wans       map[string]string
	sites      map[string]*models.Site
	failSite   map[string]error
	failZone   map[string]error
	failUplink map[string]error
	failDelete error
	// called when CreateZone starts, e.g. to cancel the run mid-row
	onZone func(name string)

	calls     []string
	mutations int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		wans:       map[string]string{"wan1": "wan-1"},
		sites:      map[string]*models.Site{},
		failSite:   map[string]error{},
		failZone:   map[string]error{},
		failUplink: map[string]error{},
	}
}

func (f *fakeAPI) EnsureSite(ctx context.Context, rec *models.SiteRecord) (*models.Site, bool, error) {
	f.calls = append(f.calls, "site:"+rec.Name)
	if site, ok := f.sites[rec.Name]; ok {
		return site, false, nil
	}
	f.mutations++
	if err := f.failSite[rec.Name]; err != nil {
		return nil, false, err
	}
	site := &models.Site{ID: "site-" + rec.Name, Name: rec.Name}
	f.sites[rec.Name] = site
	return site, true, nil
}

func (f *fakeAPI) CreateZone(ctx context.Context, siteID, name, subnet string, vlan int) (*models.Zone, error) {
	f.calls = append(f.calls, "zone:"+name)
	f.mutations++
	if f.onZone != nil {
		f.onZone(name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.failZone[name]; err != nil {
		return nil, err
	}
	return &models.Zone{ID: "zone-" + name, Site: siteID, Name: name, VLAN: vlan, Subnet: subnet}, nil
}

func (f *fakeAPI) FindWAN(ctx context.Context, name string) (*models.WAN, error) {
	f.calls = append(f.calls, "wan:"+name)
	id, ok := f.wans[name]
	if !ok {
		return nil, &client.NotFoundError{Kind: "wan", Name: name}
	}
	return &models.WAN{ID: id, Name: name}, nil
}

func (f *fakeAPI) CreateUplink(ctx context.Context, req models.UplinkRequest) (*models.Uplink, error) {
	f.calls = append(f.calls, "uplink:"+req.WAN.Name)
	f.mutations++
	if err := f.failUplink[req.SiteID]; err != nil {
		return nil, err
	}
	return &models.Uplink{ID: "uplink-" + req.SiteID, Site: req.SiteID, WAN: req.WAN.ID, Type: "static"}, nil
}

func (f *fakeAPI) DeleteSite(ctx context.Context, site *models.Site) error {
	f.calls = append(f.calls, "delete:"+site.Name)
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.sites, site.Name)
	return nil
}

func quietLogger() *utils.Logger {
	return utils.NewLoggerWithWriters(io.Discard, io.Discard, false)
}

func csvSource(t *testing.T, rows ...string) RecordSource {
	t.Helper()
	content := testHeader + "\n" + strings.Join(rows, "\n") + "\n"
	reader, err := loader.NewCSVReader(strings.NewReader(content), "test.csv", quietLogger())
	if err != nil {
		t.Fatalf("NewCSVReader() error = %v", err)
	}
	return reader
}

func rowFor(name, wan string) string {
	return strings.NewReplacer("siteA", name, "wan1", wan).Replace(testRow)
}

func TestRunSingleRowSuccess(t *testing.T) {
	api := newFakeAPI()
	im := NewImporter(api, quietLogger(), Options{})

	summary, err := im.Run(context.Background(), csvSource(t, testRow))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Succeeded != 1 || summary.Failed != 0 || summary.Total() != 1 {
		t.Errorf("summary = %d ok / %d failed / %d total", summary.Succeeded, summary.Failed, summary.Total())
	}

	expected := []string{"site:siteA", "zone:zoneA", "wan:wan1", "uplink:wan1"}
	if strings.Join(api.calls, ",") != strings.Join(expected, ",") {
		t.Errorf("calls = %v, expected %v", api.calls, expected)
	}

	r := summary.Results[0]
	if r.SiteID != "site-siteA" || r.ZoneID != "zone-zoneA" || r.UplinkID != "uplink-site-siteA" || !r.SiteCreated {
		t.Errorf("result = %+v", r)
	}
}

func TestRunMissingWAN(t *testing.T) {
	api := newFakeAPI()
	delete(api.wans, "wan1")
	im := NewImporter(api, quietLogger(), Options{})

	summary, err := im.Run(context.Background(), csvSource(t, testRow))

	var pErr *PartialFailureError
	if !errors.As(err, &pErr) || pErr.Failed != 1 || pErr.Total != 1 {
		t.Fatalf("Run() error = %v, expected PartialFailureError 1/1", err)
	}

	r := summary.Results[0]
	if r.Status != StatusFailed || r.Stage != StageWAN {
		t.Errorf("result = %+v, expected failure at wan stage", r)
	}
	var nfErr *client.NotFoundError
	if !errors.As(r.Err, &nfErr) {
		t.Errorf("row error = %v, expected *client.NotFoundError", r.Err)
	}
	if r.SiteID == "" || r.ZoneID == "" {
		t.Error("site and zone should still have been created")
	}
	if _, ok := api.sites["siteA"]; !ok {
		t.Error("site must not be removed without cleanup option")
	}
}

func TestRunContinuesAfterRowErrors(t *testing.T) {
	api := newFakeAPI()
	api.failSite["siteB"] = &client.APIError{Method: http.MethodPost, Path: "org/o/sites", StatusCode: 400, Message: "duplicate"}
	im := NewImporter(api, quietLogger(), Options{})

	badVLAN := strings.Replace(rowFor("siteC", "wan1"), ",100,", ",abc,", 1)
	rows := []string{
		rowFor("siteA", "wan1"),
		rowFor("siteB", "wan1"),
		badVLAN,
		rowFor("siteD", "missing"),
		rowFor("siteE", "wan1"),
	}

	summary, err := im.Run(context.Background(), csvSource(t, rows...))

	var pErr *PartialFailureError
	if !errors.As(err, &pErr) {
		t.Fatalf("Run() error = %v, expected *PartialFailureError", err)
	}

	if summary.Total() != len(rows) {
		t.Fatalf("Total() = %d, expected one result per row (%d)", summary.Total(), len(rows))
	}
	if summary.Succeeded != 2 || summary.Failed != 3 {
		t.Errorf("summary = %d ok / %d failed, expected 2 / 3", summary.Succeeded, summary.Failed)
	}

	expectedKinds := []string{"", "api", "validation", "not_found", ""}
	for i, r := range summary.Results {
		if kind := ErrorKind(r.Err); kind != expectedKinds[i] {
			t.Errorf("row %d kind = %q, expected %q (err %v)", i, kind, expectedKinds[i], r.Err)
		}
		if r.Line != i+2 {
			t.Errorf("row %d line = %d, expected %d", i, r.Line, i+2)
		}
	}

	// at most three mutating calls per row
	if api.mutations > 3*len(rows) {
		t.Errorf("mutations = %d, expected at most %d", api.mutations, 3*len(rows))
	}
}

func TestRunReusesExistingSite(t *testing.T) {
	api := newFakeAPI()
	api.sites["siteA"] = &models.Site{ID: "site-old", Name: "siteA"}
	api.wans = map[string]string{}
	im := NewImporter(api, quietLogger(), Options{CleanupOnFailure: true})

	summary, _ := im.Run(context.Background(), csvSource(t, testRow))

	r := summary.Results[0]
	if r.SiteCreated || r.SiteID != "site-old" {
		t.Errorf("result = %+v, expected reused site", r)
	}
	if r.CleanedUp {
		t.Error("a reused site must never be cleaned up")
	}
	for _, c := range api.calls {
		if strings.HasPrefix(c, "delete:") {
			t.Errorf("unexpected call %s", c)
		}
	}
}

func TestRunCleanupOnFailure(t *testing.T) {
	tests := []struct {
		name          string
		failDelete    error
		expectCleaned bool
		expectInError string
	}{
		{
			name:          "cleanup succeeds",
			expectCleaned: true,
		},
		{
			name:          "cleanup fails",
			failDelete:    errors.New("locked"),
			expectCleaned: false,
			expectInError: "cleanup failed: locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.failUplink["site-siteA"] = fmt.Errorf("failed to create uplink: %w", &client.APIError{StatusCode: 500})
			api.failDelete = tt.failDelete
			im := NewImporter(api, quietLogger(), Options{CleanupOnFailure: true})

			summary, _ := im.Run(context.Background(), csvSource(t, testRow))

			r := summary.Results[0]
			if r.Stage != StageUplink {
				t.Errorf("Stage = %q, expected %q", r.Stage, StageUplink)
			}
			if r.CleanedUp != tt.expectCleaned {
				t.Errorf("CleanedUp = %v, expected %v", r.CleanedUp, tt.expectCleaned)
			}
			if tt.expectInError != "" && !strings.Contains(r.Err.Error(), tt.expectInError) {
				t.Errorf("error %q should contain %q", r.Err.Error(), tt.expectInError)
			}
			if ErrorKind(r.Err) != "api" {
				t.Errorf("ErrorKind() = %q, underlying cause must stay visible", ErrorKind(r.Err))
			}
		})
	}
}

func TestRunZoneFailureSkipsUplink(t *testing.T) {
	api := newFakeAPI()
	api.failZone["zoneA"] = &client.APIError{StatusCode: 422, Message: "bad vlan"}
	im := NewImporter(api, quietLogger(), Options{})

	summary, _ := im.Run(context.Background(), csvSource(t, testRow))

	if summary.Results[0].Stage != StageZone {
		t.Errorf("Stage = %q, expected %q", summary.Results[0].Stage, StageZone)
	}
	for _, c := range api.calls {
		if strings.HasPrefix(c, "uplink:") || strings.HasPrefix(c, "wan:") {
			t.Errorf("unexpected call %s after zone failure", c)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	api := newFakeAPI()
	im := NewImporter(api, quietLogger(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := im.Run(ctx, csvSource(t, testRow))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, expected context.Canceled", err)
	}
	if !summary.Interrupted || summary.Total() != 0 {
		t.Errorf("summary = %+v, expected interrupted with no rows", summary)
	}
	if len(api.calls) != 0 {
		t.Errorf("calls = %v, expected none", api.calls)
	}
}

func TestRunInterruptedDuringRow(t *testing.T) {
	tests := []struct {
		name          string
		cleanup       bool
		expectCleaned bool
		expectCalls   []string
	}{
		{
			name:          "cleanup removes the half-built site",
			cleanup:       true,
			expectCleaned: true,
			expectCalls:   []string{"site:siteA", "zone:zoneA", "wan:wan1", "uplink:wan1", "site:siteB", "zone:zoneB", "delete:siteB"},
		},
		{
			name:        "without cleanup the site stays",
			expectCalls: []string{"site:siteA", "zone:zoneA", "wan:wan1", "uplink:wan1", "site:siteB", "zone:zoneB"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			api := newFakeAPI()
			api.onZone = func(name string) {
				if name == "zoneB" {
					cancel()
				}
			}
			im := NewImporter(api, quietLogger(), Options{CleanupOnFailure: tt.cleanup})

			rowB := strings.Replace(rowFor("siteB", "wan1"), "zoneA", "zoneB", 1)
			summary, err := im.Run(ctx, csvSource(t, testRow, rowB, rowFor("siteC", "wan1")))

			if !errors.Is(err, context.Canceled) {
				t.Fatalf("Run() error = %v, expected context.Canceled", err)
			}
			if !summary.Interrupted {
				t.Error("Interrupted = false, expected true")
			}
			if summary.Total() != 2 || summary.Succeeded != 1 || summary.Failed != 1 {
				t.Errorf("summary = %d total / %d ok / %d failed, expected 2 / 1 / 1",
					summary.Total(), summary.Succeeded, summary.Failed)
			}

			r := summary.Results[1]
			if r.Status != StatusFailed || r.Stage != StageZone || !r.SiteCreated {
				t.Errorf("interrupted row = %+v", r)
			}
			if ErrorKind(r.Err) != "cancelled" {
				t.Errorf("ErrorKind() = %q, expected cancelled", ErrorKind(r.Err))
			}
			if r.CleanedUp != tt.expectCleaned {
				t.Errorf("CleanedUp = %v, expected %v (err %v)", r.CleanedUp, tt.expectCleaned, r.Err)
			}
			if _, ok := api.sites["siteB"]; ok == tt.expectCleaned {
				t.Errorf("siteB present = %v after interrupt", ok)
			}
			if strings.Join(api.calls, ",") != strings.Join(tt.expectCalls, ",") {
				t.Errorf("calls = %v, expected %v", api.calls, tt.expectCalls)
			}
		})
	}
}

// errSource fails with a non-row error
type errSource struct{}

func (errSource) Next() (*models.SiteRecord, error) {
	return nil, errors.New("disk gone")
}

func TestRunSourceError(t *testing.T) {
	im := NewImporter(newFakeAPI(), quietLogger(), Options{})

	_, err := im.Run(context.Background(), errSource{})
	var pErr *PartialFailureError
	if err == nil || errors.As(err, &pErr) {
		t.Errorf("Run() error = %v, expected a fatal error", err)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"validation", &loader.ValidationError{Line: 2, Field: "vlan"}, "validation"},
		{"wrapped not found", fmt.Errorf("x: %w", &client.NotFoundError{Kind: "wan", Name: "a"}), "not_found"},
		{"api", &client.APIError{StatusCode: 500}, "api"},
		{"cancelled", context.Canceled, "cancelled"},
		{"other", errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKind(tt.err); got != tt.expected {
				t.Errorf("ErrorKind() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
