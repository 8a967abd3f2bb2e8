package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLeadIssuesSequentialIDs(t *testing.T) {
	r := setupRouter(t)
	marketer := createUser(t, "DM One", models.RoleDigitalMarketing)
	createCourse(t, "Python", 25000)

	year := time.Now().Year()
	for i := 1; i <= 3; i++ {
		w, body := doJSON(t, r, http.MethodPost, "/api/leads", marketer, map[string]interface{}{
			"name":             fmt.Sprintf("Student %d", i),
			"phone":            fmt.Sprintf("01%08d", i),
			"interestedCourse": "Python",
		})
		requireStatus(t, w, http.StatusCreated)
		lead := body["lead"].(map[string]interface{})
		assert.Equal(t, fmt.Sprintf("LEAD-%d-PYT-%05d", year, i), lead["leadId"])
		assert.Equal(t, string(models.LeadAssigned), lead["status"])
	}
}

func TestCreateLeadRejectsUnknownCourse(t *testing.T) {
	r := setupRouter(t)
	marketer := createUser(t, "DM One", models.RoleDigitalMarketing)

	w, body := doJSON(t, r, http.MethodPost, "/api/leads", marketer, map[string]interface{}{
		"name":             "Someone",
		"interestedCourse": "Underwater Basket Weaving",
	})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "INVALID_COURSE", errCode(body))
}

func TestCreateLeadDuplicateGuard(t *testing.T) {
	r := setupRouter(t)
	marketer := createUser(t, "DM One", models.RoleDigitalMarketing)

	payload := map[string]interface{}{"name": "First", "phone": "0170000001"}
	w, _ := doJSON(t, r, http.MethodPost, "/api/leads", marketer, payload)
	requireStatus(t, w, http.StatusCreated)

	payload["name"] = "Second"
	w, body := doJSON(t, r, http.MethodPost, "/api/leads", marketer, payload)
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, "DUPLICATE", errCode(body))
}

func TestAssignRequiresAdmissionRole(t *testing.T) {
	r := setupRouter(t)
	marketer := createUser(t, "DM One", models.RoleDigitalMarketing)
	accountant := createUser(t, "Acc One", models.RoleAccountant)

	w, body := doJSON(t, r, http.MethodPost, "/api/leads", marketer, map[string]interface{}{
		"name": "Assignable", "phone": "0170000002",
	})
	requireStatus(t, w, http.StatusCreated)
	leadID := uint(body["lead"].(map[string]interface{})["ID"].(float64))

	w, body = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/leads/%d/assign", leadID), marketer,
		map[string]interface{}{"assignedTo": accountant.ID})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "INVALID_ASSIGNEE", errCode(body))
}

// seedAssignedLead inserts a lead directly, already assigned to the given
// admission member.
func seedAssignedLead(t *testing.T, assignee models.User) models.Lead {
	t.Helper()
	now := time.Now()
	lead := models.Lead{
		LeadID:       fmt.Sprintf("LEAD-TEST-%d", time.Now().UnixNano()),
		EntryDate:    now,
		Name:         "Seeded Lead",
		Phone:        fmt.Sprintf("018%d", time.Now().UnixNano()%100000000),
		Status:       models.LeadAssigned,
		AssignedToID: &assignee.ID,
		AssignedAt:   &now,
	}
	require.NoError(t, config.DB.Create(&lead).Error)
	return lead
}

func TestTransitionLegality(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	lead := seedAssignedLead(t, officer)
	path := fmt.Sprintf("/api/admission/leads/%d/status", lead.ID)

	// Assigned cannot jump straight to Admitted.
	w, body := doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
		"status": models.LeadAdmitted,
	})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "BAD_TRANSITION", errCode(body))

	w, _ = doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
		"status": models.LeadCounseling,
	})
	requireStatus(t, w, http.StatusOK)

	w, body = doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
		"status": models.LeadAdmitted,
	})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, string(models.LeadAdmitted), body["lead"].(map[string]interface{})["status"])

	var fresh models.Lead
	require.NoError(t, config.DB.First(&fresh, lead.ID).Error)
	assert.NotNil(t, fresh.CounselingAt)
	assert.NotNil(t, fresh.AdmittedAt)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	lead := seedAssignedLead(t, officer)

	w, body := doJSON(t, r, http.MethodPut,
		fmt.Sprintf("/api/admission/leads/%d/status", lead.ID), officer,
		map[string]interface{}{"status": "Enrolled"})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "INVALID_STATUS", errCode(body))
}

func TestTransitionOwnership(t *testing.T) {
	r := setupRouter(t)
	owner := createUser(t, "Adm Owner", models.RoleAdmission)
	other := createUser(t, "Adm Other", models.RoleAdmission)
	admin := createUser(t, "Admin", models.RoleAdmin)
	lead := seedAssignedLead(t, owner)
	path := fmt.Sprintf("/api/admission/leads/%d/status", lead.ID)

	w, body := doJSON(t, r, http.MethodPut, path, other, map[string]interface{}{
		"status": models.LeadCounseling,
	})
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "FORBIDDEN", errCode(body))

	// Elevated roles can transition anyone's lead.
	w, _ = doJSON(t, r, http.MethodPut, path, admin, map[string]interface{}{
		"status": models.LeadCounseling,
	})
	requireStatus(t, w, http.StatusOK)
}

func TestRepeatedFollowUpCarveOut(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	lead := seedAssignedLead(t, officer)
	path := fmt.Sprintf("/api/admission/leads/%d/status", lead.ID)

	for _, status := range []models.LeadStatus{models.LeadCounseling, models.LeadInFollowUp} {
		w, _ := doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
			"status": status, "note": "first contact",
		})
		requireStatus(t, w, http.StatusOK)
	}

	// Re-submitting In Follow Up with a note adds another entry.
	w, _ := doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
		"status": models.LeadInFollowUp, "note": "second contact",
	})
	requireStatus(t, w, http.StatusOK)

	// Without a note it is an illegal self-loop.
	w, body := doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
		"status": models.LeadInFollowUp,
	})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "BAD_TRANSITION", errCode(body))

	var count int64
	config.DB.Model(&models.FollowUp{}).Where("lead_id = ?", lead.ID).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestAdmittedEnrollsInBatchOnce(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	admin := createUser(t, "Admin", models.RoleAdmin)
	course := createCourse(t, "Python", 25000)
	lead := seedAssignedLead(t, officer)

	w, body := doJSON(t, r, http.MethodPost, "/api/batches", admin, map[string]interface{}{
		"batchName": "Python Morning", "category": "Python", "targetedStudent": 20,
	})
	requireStatus(t, w, http.StatusCreated)
	batchID := uint(body["batch"].(map[string]interface{})["ID"].(float64))

	path := fmt.Sprintf("/api/admission/leads/%d/status", lead.ID)
	w, _ = doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
		"status": models.LeadCounseling,
	})
	requireStatus(t, w, http.StatusOK)
	w, _ = doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
		"status":   models.LeadAdmitted,
		"courseId": course.ID,
		"batchId":  batchID,
	})
	requireStatus(t, w, http.StatusOK)

	var roster int64
	config.DB.Model(&models.BatchStudent{}).
		Where("batch_id = ? AND lead_id = ?", batchID, lead.ID).
		Count(&roster)
	assert.EqualValues(t, 1, roster)
}

func TestUndoAdmissionScenario(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	admin := createUser(t, "Admin", models.RoleAdmin)
	accountant := createUser(t, "Acc One", models.RoleAccountant)
	course := createCourse(t, "Python", 25000)
	lead := seedAssignedLead(t, officer)

	w, body := doJSON(t, r, http.MethodPost, "/api/batches", admin, map[string]interface{}{
		"batchName": "B1", "category": "Python", "targetedStudent": 10,
	})
	requireStatus(t, w, http.StatusCreated)
	batchID := uint(body["batch"].(map[string]interface{})["ID"].(float64))

	path := fmt.Sprintf("/api/admission/leads/%d/status", lead.ID)
	w, _ = doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
		"status": models.LeadCounseling,
	})
	requireStatus(t, w, http.StatusOK)
	w, _ = doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
		"status": models.LeadInFollowUp, "note": "wants payment plan",
	})
	requireStatus(t, w, http.StatusOK)

	// Fee collected and approved before admission.
	w, body = doJSON(t, r, http.MethodPost, "/api/fees", officer, map[string]interface{}{
		"leadId": lead.ID, "courseName": course.Name,
		"totalAmount": 25000.0, "amount": 10000.0, "method": "Cash",
		"paymentDate": time.Now().Format("2006-01-02"),
	})
	requireStatus(t, w, http.StatusCreated)
	feeID := uint(body["fee"].(map[string]interface{})["ID"].(float64))
	w, _ = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/fees/%d/decision", feeID), accountant,
		map[string]interface{}{"action": "approve"})
	requireStatus(t, w, http.StatusOK)

	w, _ = doJSON(t, r, http.MethodPut, path, officer, map[string]interface{}{
		"status": models.LeadAdmitted, "courseId": course.ID, "batchId": batchID,
	})
	requireStatus(t, w, http.StatusOK)

	// Only elevated roles may undo.
	undoPath := fmt.Sprintf("/api/admission/leads/%d/undo-admission", lead.ID)
	w, _ = doJSON(t, r, http.MethodPut, undoPath, officer, nil)
	requireStatus(t, w, http.StatusForbidden)

	w, _ = doJSON(t, r, http.MethodPut, undoPath, admin, nil)
	requireStatus(t, w, http.StatusOK)

	var fresh models.Lead
	require.NoError(t, config.DB.First(&fresh, lead.ID).Error)
	assert.Equal(t, models.LeadInFollowUp, fresh.Status)
	assert.Nil(t, fresh.AdmittedAt)
	assert.Nil(t, fresh.AdmittedToCourseID)
	assert.Nil(t, fresh.AdmittedToBatchID)

	var roster int64
	config.DB.Model(&models.BatchStudent{}).
		Where("batch_id = ? AND lead_id = ?", batchID, lead.ID).
		Count(&roster)
	assert.EqualValues(t, 0, roster)

	var fee models.AdmissionFee
	require.NoError(t, config.DB.First(&fee, feeID).Error)
	assert.Equal(t, models.StatusRejected, fee.Status)
	assert.Contains(t, fee.Note, "CANCELLED")
}
