package handler

import (
	"net/http"
	"testing"

	"github.com/Anshu331/harness-portal/internal/tracker/testutil"
)

func TestVehicleDetailCRUD(t *testing.T) {
	env := setupApp(t)
	admin := env.token(env.Admin)

	w := testutil.DoMultipart(env.Router, "POST", "/api/vehicle-details",
		map[string]string{"vehicleType": "4W", "vehicleName": "Alpha", "partNo": "VD-1"},
		[]testutil.File{{Field: "drawing", Name: "layout.pdf", Content: []byte("%PDF-1.4")}},
		admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	item := testutil.Data(t, w)
	id := item["id"].(string)
	if item["drawingName"] != "layout.pdf" {
		t.Errorf("Expected drawing stored, got %v", item["drawingName"])
	}
	firstURL := item["drawingUrl"].(string)

	w = testutil.DoMultipart(env.Router, "POST", "/api/vehicle-details",
		map[string]string{"vehicleName": "No part"}, nil, admin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without partNo, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "PATCH", "/api/vehicle-details/"+id,
		map[string]interface{}{"vehicleName": "Beta", "projectId": nil}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if testutil.Data(t, w)["vehicleName"] != "Beta" {
		t.Errorf("Expected vehicleName Beta")
	}

	w = testutil.DoRequest(env.Router, "PATCH", "/api/vehicle-details/"+id,
		map[string]interface{}{"vehicleType": "2W"}, admin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid vehicle type, got %d", w.Code)
	}

	w = testutil.DoMultipart(env.Router, "POST", "/api/vehicle-details/"+id+"/drawing", nil,
		[]testutil.File{{Field: "drawing", Name: "layout-v2.pdf", Content: []byte("%PDF-1.5")}}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("drawing: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, "GET", firstURL, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected replaced drawing to be removed, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/vehicle-details", nil, env.token(env.Vendor))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for vendor, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "DELETE", "/api/vehicle-details/"+id, nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = testutil.DoRequest(env.Router, "DELETE", "/api/vehicle-details/"+id, nil, admin)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/vehicle-details", nil, admin)
	if n := len(testutil.DataList(t, w)); n != 0 {
		t.Errorf("Expected empty list, got %d", n)
	}
}
