package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/testops/orchestrator/internal/biz/rule"
	"github.com/testops/orchestrator/internal/biz/runner"
)

// RuleHandler 负载均衡规则管理
type RuleHandler struct {
	ruleRepo rule.Repo
}

func NewRuleHandler(ruleRepo rule.Repo) *RuleHandler {
	return &RuleHandler{ruleRepo: ruleRepo}
}

type RuleReq struct {
	Name             string            `json:"name" binding:"required"`
	Type             rule.RuleType     `json:"type" binding:"required"`
	TestSuitePattern string            `json:"test_suite_pattern"`
	EnvPattern       string            `json:"env_pattern"`
	RunnerTypeFilter runner.RunnerType `json:"runner_type_filter"`
	Priority         int               `json:"priority"`
	Active           *bool             `json:"active"`
	Config           map[string]any    `json:"config"`
}

func (r *RuleReq) validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("unknown rule type: %s", r.Type)
	}
	if err := rule.ValidatePattern(r.TestSuitePattern); err != nil {
		return fmt.Errorf("invalid test suite pattern: %w", err)
	}
	if err := rule.ValidatePattern(r.EnvPattern); err != nil {
		return fmt.Errorf("invalid environment pattern: %w", err)
	}
	return nil
}

func (h *RuleHandler) Create(c *gin.Context) {
	var req RuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	r := &rule.LoadBalancingRule{
		Name:             req.Name,
		Type:             req.Type,
		TestSuitePattern: req.TestSuitePattern,
		EnvPattern:       req.EnvPattern,
		RunnerTypeFilter: req.RunnerTypeFilter,
		Priority:         req.Priority,
		Active:           active,
		Config:           req.Config,
	}
	if err := h.ruleRepo.Create(c.Request.Context(), r); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *RuleHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	rules, err := h.ruleRepo.List(c.Request.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rules})
}

func (h *RuleHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := h.ruleRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RuleHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req RuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.ruleRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}

	r.Name = req.Name
	r.Type = req.Type
	r.TestSuitePattern = req.TestSuitePattern
	r.EnvPattern = req.EnvPattern
	r.RunnerTypeFilter = req.RunnerTypeFilter
	r.Priority = req.Priority
	if req.Active != nil {
		r.Active = *req.Active
	}
	r.Config = req.Config

	if err := h.ruleRepo.Save(c.Request.Context(), r); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RuleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.ruleRepo.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rule deleted"})
}
