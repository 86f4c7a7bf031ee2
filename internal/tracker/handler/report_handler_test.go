package handler

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/Anshu331/harness-portal/internal/tracker/testutil"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image-body")

func TestReportUploadAndServe(t *testing.T) {
	env := setupApp(t)
	id := env.toAssigned(t, "R-100")

	w := testutil.DoMultipart(env.Router, "POST", "/api/report/upload/"+id,
		map[string]string{"type": "PHOTO", "remarks": "front view"},
		[]testutil.File{{Field: "file", Name: "front.png", Content: pngBytes}},
		env.token(env.Vendor))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.Data(t, w)
	if data["type"] != "PHOTO" || data["fileName"] != "front.png" {
		t.Errorf("Unexpected report: %v", data)
	}
	fileURL := data["fileUrl"].(string)

	w = testutil.DoRequest(env.Router, "GET", fileURL, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected uploaded file to be served, got %d", w.Code)
	}
	if !bytes.Equal(w.Body.Bytes(), pngBytes) {
		t.Errorf("Served content does not match upload")
	}

	w = testutil.DoRequest(env.Router, "GET", "/uploads/../../etc/passwd", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for traversal, got %d", w.Code)
	}
}

func TestReportUploadPermissions(t *testing.T) {
	env := setupApp(t)
	id := env.toAssigned(t, "R-200")
	file := []testutil.File{{Field: "file", Name: "report.pdf", Content: []byte("%PDF-1.4")}}

	cases := []struct {
		name   string
		token  string
		typ    string
		expect int
	}{
		{"vendor dvp report", env.token(env.Vendor), "DVP_REPORT", http.StatusForbidden},
		{"dvp tnv report", env.token(env.DVP), "TNV_REPORT", http.StatusForbidden},
		{"unknown type", env.token(env.Admin), "INVOICE", http.StatusBadRequest},
		{"unassigned vendor", env.token(env.OtherVendor), "PHOTO", http.StatusNotFound},
		{"dvp report", env.token(env.DVP), "DVP_REPORT", http.StatusCreated},
		{"tnv document", env.token(env.TNV), "TNV_DOCUMENT", http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := testutil.DoMultipart(env.Router, "POST", "/api/report/upload/"+id,
				map[string]string{"type": tc.typ}, file, tc.token)
			if w.Code != tc.expect {
				t.Errorf("Expected %d, got %d: %s", tc.expect, w.Code, w.Body.String())
			}
		})
	}

	w := testutil.DoMultipart(env.Router, "POST", "/api/report/upload/"+id,
		map[string]string{"type": "PHOTO"}, nil, env.token(env.Vendor))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without file, got %d", w.Code)
	}
}

func TestReportListFiltersByRole(t *testing.T) {
	env := setupApp(t)
	id := env.toAssigned(t, "R-300")

	upload := func(token, typ string) {
		t.Helper()
		w := testutil.DoMultipart(env.Router, "POST", "/api/report/upload/"+id,
			map[string]string{"type": typ},
			[]testutil.File{{Field: "file", Name: "doc.pdf", Content: []byte("%PDF-1.4")}}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("upload %s: expected 201, got %d: %s", typ, w.Code, w.Body.String())
		}
	}
	upload(env.token(env.Vendor), "PDI_REPORT")
	upload(env.token(env.DVP), "DVP_REPORT")
	upload(env.token(env.TNV), "TNV_REPORT")

	w := testutil.DoRequest(env.Router, "GET", "/api/report/harness/"+id, nil, env.token(env.Admin))
	if n := len(testutil.DataList(t, w)); n != 3 {
		t.Errorf("Expected admin to see 3 reports, got %d", n)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/report/harness/"+id, nil, env.token(env.Vendor))
	if n := len(testutil.DataList(t, w)); n != 1 {
		t.Errorf("Expected vendor to see 1 report, got %d", n)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/report/harness/"+id, nil, env.token(env.DVP))
	if n := len(testutil.DataList(t, w)); n != 2 {
		t.Errorf("Expected DVP to see 2 reports, got %d", n)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/report/harness/"+id+"?type=DVP_REPORT", nil, env.token(env.TNV))
	list := testutil.DataList(t, w)
	if len(list) != 1 || list[0].(map[string]interface{})["type"] != "DVP_REPORT" {
		t.Errorf("Expected TNV to see the DVP report, got %s", w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/report/harness/"+id+"?type=TNV_REPORT", nil, env.token(env.DVP))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for DVP reading TNV reports, got %d", w.Code)
	}
}
