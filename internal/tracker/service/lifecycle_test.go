package service

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance(t *testing.T) {
	h := &entity.Harness{Status: entity.HarnessStatusDevelopment}
	require.NoError(t, advance(h, entity.HarnessStatusReleased))
	assert.Equal(t, entity.HarnessStatusReleased, h.Status)

	err := advance(h, entity.HarnessStatusDispatched)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, entity.HarnessStatusReleased, h.Status)
}

func TestApplyVerdictDVP(t *testing.T) {
	h := &entity.Harness{Status: entity.HarnessStatusReceived, DVPStatus: entity.VerdictPending}

	_, err := applyVerdict(h, &h.DVPStatus, entity.VerdictFail, "DVP", entity.HarnessStatusReceived, entity.HarnessStatusDVPDone)
	require.NoError(t, err)
	assert.Equal(t, entity.HarnessStatusReceived, h.Status)

	_, err = applyVerdict(h, &h.DVPStatus, entity.VerdictConditionalPass, "DVP", entity.HarnessStatusReceived, entity.HarnessStatusDVPDone)
	require.NoError(t, err)
	assert.Equal(t, entity.HarnessStatusDVPDone, h.Status)

	// 重复相同结论不做任何修改
	_, err = applyVerdict(h, &h.DVPStatus, entity.VerdictConditionalPass, "DVP", entity.HarnessStatusReceived, entity.HarnessStatusDVPDone)
	assert.ErrorIs(t, err, errUnchanged)

	_, err = applyVerdict(h, &h.DVPStatus, entity.VerdictPending, "DVP", entity.HarnessStatusReceived, entity.HarnessStatusDVPDone)
	require.NoError(t, err)
	assert.Equal(t, entity.HarnessStatusReceived, h.Status)
	assert.Equal(t, entity.VerdictPending, h.DVPStatus)
}

func TestApplyVerdictRejectsWrongStage(t *testing.T) {
	h := &entity.Harness{Status: entity.HarnessStatusAssigned, TNVStatus: entity.VerdictPending}
	_, err := applyVerdict(h, &h.TNVStatus, entity.VerdictPass, "TNV", entity.HarnessStatusDVPDone, entity.HarnessStatusTNVDone)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, entity.VerdictPending, h.TNVStatus)
	assert.Equal(t, entity.HarnessStatusAssigned, h.Status)
}

func TestSameSet(t *testing.T) {
	assert.True(t, sameSet([]string{"a", "b"}, []string{"b", "a"}))
	assert.True(t, sameSet(nil, []string{}))
	assert.False(t, sameSet([]string{"a"}, []string{"a", "b"}))
	assert.False(t, sameSet([]string{"a", "c"}, []string{"a", "b"}))
}

func TestAcceptable(t *testing.T) {
	assert.True(t, acceptable(entity.ReportTypePhoto, "image/jpeg"))
	assert.False(t, acceptable(entity.ReportTypePhoto, "application/pdf"))
	assert.True(t, acceptable(entity.ReportTypeDVPReport, "application/pdf"))
	assert.True(t, acceptable(entity.ReportTypeTNVDocument, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.True(t, acceptable(entity.ReportTypePDIReport, "image/png"))
	assert.False(t, acceptable(entity.ReportTypeReport, "application/x-msdownload"))
	assert.True(t, acceptable(entity.ReportTypeReport, "text/csv; charset=utf-8"))
}

func TestFileInputContentType(t *testing.T) {
	f := FileInput{Name: "photo.PNG", ContentType: "application/octet-stream"}
	assert.Equal(t, "image/png", f.detectContentType())

	f = FileInput{Name: "report.pdf", ContentType: "application/pdf"}
	assert.Equal(t, "application/pdf", f.detectContentType())

	f = FileInput{Name: "blob"}
	assert.Equal(t, "application/octet-stream", f.detectContentType())
}

func TestNullableString(t *testing.T) {
	var req UpdateVehicleDetailRequest
	require.NoError(t, json.Unmarshal([]byte(`{"vehicleName":"X"}`), &req))
	assert.False(t, req.ProjectID.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"projectId":null}`), &req))
	assert.True(t, req.ProjectID.Set)
	assert.Nil(t, req.ProjectID.Value)

	req = UpdateVehicleDetailRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"projectId":"p1"}`), &req))
	require.NotNil(t, req.ProjectID.Value)
	assert.Equal(t, "p1", *req.ProjectID.Value)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "secret1"))
	assert.False(t, VerifyPassword(hash, "secret2"))
}

func TestErrorKinds(t *testing.T) {
	err := wrapNotFound(repository.ErrNotFound, "harness")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "harness not found", err.Error())

	err = wrapNotFound(errors.New("boom"), "harness")
	assert.False(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(errBadCredentials, ErrUnauthorized))
	assert.Equal(t, "Invalid email or password", errBadCredentials.Error())
}
