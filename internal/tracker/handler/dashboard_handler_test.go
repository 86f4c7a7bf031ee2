package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/Anshu331/harness-portal/internal/tracker/testutil"
	"github.com/xuri/excelize/v2"
)

func TestDashboardCounts(t *testing.T) {
	env := setupApp(t)
	admin := env.token(env.Admin)

	env.createHarness(t, "D-1")
	env.createHarness(t, "D-2")
	env.dispatch(t, env.toAssigned(t, "D-3"))
	received := env.dispatch(t, env.toAssigned(t, "D-4"))
	w := testutil.DoRequest(env.Router, "POST", "/api/shipment/receive/"+received,
		map[string]string{"receivedAt": "PLANT"}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("receive: expected 200, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/dashboard", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	stats := testutil.Data(t, w)
	want := map[string]float64{"totalHarness": 4, "development": 2, "dispatched": 1, "received": 1}
	for k, v := range want {
		if stats[k] != v {
			t.Errorf("Expected %s=%v, got %v", k, v, stats[k])
		}
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/dashboard/development", nil, admin)
	if n := len(testutil.Data(t, w)["harnesses"].([]interface{})); n != 2 {
		t.Errorf("Expected 2 development harnesses, got %d", n)
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/dashboard/received", nil, admin)
	if n := len(testutil.Data(t, w)["shipments"].([]interface{})); n != 1 {
		t.Errorf("Expected 1 received shipment, got %d", n)
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/dashboard/archived", nil, admin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown filter, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/dashboard", nil, env.token(env.DVP))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for DVP dashboard, got %d", w.Code)
	}
}

func TestTrackingReleasedOnly(t *testing.T) {
	env := setupApp(t)
	admin := env.token(env.Admin)

	env.createHarness(t, "T-1", env.Vendor.ID)
	env.toAssigned(t, "T-2")

	w := testutil.DoRequest(env.Router, "GET", "/api/tracking", nil, admin)
	rows := testutil.DataList(t, w)
	if len(rows) != 1 {
		t.Fatalf("Expected only the released harness, got %d", len(rows))
	}
	row := rows[0].(map[string]interface{})
	if row["partNo"] != "T-2" {
		t.Errorf("Expected T-2, got %v", row["partNo"])
	}
	vendors := row["vendors"].([]interface{})
	if len(vendors) != 1 || vendors[0].(map[string]interface{})["id"] != env.Vendor.ID {
		t.Errorf("Expected vendor reference, got %v", vendors)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/tracking?vendorId="+env.OtherVendor.ID, nil, admin)
	if n := len(testutil.DataList(t, w)); n != 0 {
		t.Errorf("Expected 0 rows for other vendor, got %d", n)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/tracking/export", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "harness_tracking_") {
		t.Errorf("Unexpected Content-Disposition: %s", w.Header().Get("Content-Disposition"))
	}
	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	partNo, _ := f.GetCellValue("Tracking", "C2")
	if partNo != "T-2" {
		t.Errorf("Expected C2=T-2, got %q", partNo)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/tracking", nil, env.token(env.Vendor))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for vendor tracking, got %d", w.Code)
	}
}
