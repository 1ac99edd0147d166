package handlers

import (
	"net/http"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gin-gonic/gin"
)

// PolicyHandlers administers the role rules guarding dashboard routes
type PolicyHandlers struct {
	policy domain.PolicyService
}

// NewPolicyHandlers creates policy handlers
func NewPolicyHandlers(policy domain.PolicyService) *PolicyHandlers {
	return &PolicyHandlers{policy: policy}
}

type policyReq struct {
	Role     string `json:"role"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// List returns every rule
func (h *PolicyHandlers) List(c *gin.Context) {
	policies := h.policy.GetPolicies()
	if policies == nil {
		policies = [][]string{}
	}
	c.JSON(http.StatusOK, gin.H{"data": policies})
}

// Add installs a rule
func (h *PolicyHandlers) Add(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.policy.AddPolicy(r.Role, r.Resource, r.Action); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove deletes a rule
func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.policy.RemovePolicy(r.Role, r.Resource, r.Action); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
