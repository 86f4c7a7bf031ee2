package policy

import (
	"testing"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	cases := []struct {
		role, resource, action string
		want                   bool
	}{
		{entity.RoleAdmin, ResourceVehicleDetail, ActionDelete, true},
		{entity.RoleAdmin, ReportResource(entity.ReportTypeTNVDocument), ActionUpload, true},
		{entity.RoleVendor, ResourceShipment, ActionDispatch, true},
		{entity.RoleVendor, ResourceShipment, ActionReceive, false},
		{entity.RoleVendor, ResourceDashboard, ActionRead, false},
		{entity.RoleVendor, HarnessFieldResource(FieldDVP), ActionUpdate, false},
		{entity.RoleDVP, HarnessFieldResource(FieldDVP), ActionUpdate, true},
		{entity.RoleDVP, HarnessFieldResource(FieldTNV), ActionUpdate, false},
		{entity.RoleTNV, ReportResource(entity.ReportTypeDVPReport), ActionRead, true},
		{entity.RoleTNV, ReportResource(entity.ReportTypeDVPReport), ActionUpload, false},
		{entity.RoleDVP, ResourceProject, ActionCreate, false},
		{"", ResourceProject, ActionRead, false},
		{"GUEST", ResourceHarness, ActionRead, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, p.Allow(c.role, c.resource, c.action), "%s %s %s", c.role, c.resource, c.action)
	}
}

func TestCanView(t *testing.T) {
	p := MustNew()
	h := &entity.Harness{ID: "h1", AssignedVendors: pq.StringArray{"v1"}}
	orphan := &entity.Harness{ID: "h2"}

	assert.True(t, p.CanView(Principal{UserID: "v1", Role: entity.RoleVendor}, h))
	assert.False(t, p.CanView(Principal{UserID: "v2", Role: entity.RoleVendor}, h))
	assert.False(t, p.CanView(Principal{UserID: "v1", Role: entity.RoleVendor}, orphan))

	for _, role := range []string{entity.RoleAdmin, entity.RoleDVP, entity.RoleTNV} {
		assert.True(t, p.CanView(Principal{UserID: "x", Role: role}, orphan), role)
	}
	assert.False(t, p.CanView(Principal{UserID: "x", Role: entity.RoleAdmin}, nil))
}

func TestWritableFields(t *testing.T) {
	p := MustNew()
	assert.Equal(t, []string{FieldVendorETA}, p.WritableFields(entity.RoleVendor))
	assert.Equal(t, []string{FieldDVP}, p.WritableFields(entity.RoleDVP))
	assert.Equal(t, []string{FieldTNV}, p.WritableFields(entity.RoleTNV))
	assert.ElementsMatch(t, harnessFields, p.WritableFields(entity.RoleAdmin))
}

func TestReportTypes(t *testing.T) {
	p := MustNew()

	assert.ElementsMatch(t,
		[]string{entity.ReportTypePhoto, entity.ReportTypePDIReport},
		p.UploadableReportTypes(entity.RoleVendor))
	assert.ElementsMatch(t,
		[]string{entity.ReportTypeDVPReport},
		p.UploadableReportTypes(entity.RoleDVP))
	assert.ElementsMatch(t,
		[]string{entity.ReportTypeTNVReport, entity.ReportTypeTNVDocument},
		p.UploadableReportTypes(entity.RoleTNV))

	assert.ElementsMatch(t,
		[]string{entity.ReportTypeDVPReport, entity.ReportTypeReport, entity.ReportTypePhoto, entity.ReportTypePDIReport},
		p.ReadableReportTypes(entity.RoleDVP))
	assert.ElementsMatch(t,
		[]string{entity.ReportTypeTNVReport, entity.ReportTypeTNVDocument, entity.ReportTypeDVPReport,
			entity.ReportTypeReport, entity.ReportTypePhoto, entity.ReportTypePDIReport},
		p.ReadableReportTypes(entity.RoleTNV))
	assert.ElementsMatch(t, entity.ReportTypes, p.ReadableReportTypes(entity.RoleAdmin))
	assert.Empty(t, p.ReadableReportTypes("GUEST"))
}
