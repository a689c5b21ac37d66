package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/store"
)

// Reason is a machine-readable denial reason returned by the gating services.
type Reason string

const (
	// ReasonRequiresBayah denies users who have not given bay'ah.
	ReasonRequiresBayah Reason = "requires_bayah"
	// ReasonGenderMismatch denies users whose gender does not match the rule.
	ReasonGenderMismatch Reason = "gender_mismatch"
	// ReasonLevelTooLow denies users below the required study level.
	ReasonLevelTooLow Reason = "level_too_low"
	// ReasonConflictingGenderRules denies everyone when ancestor rules name
	// different genders. Takes precedence over all other checks.
	ReasonConflictingGenderRules Reason = "conflicting_gender_rules"
)

// EligibilityVerdict is the outcome of evaluating content rules for a user.
// The effective requirement fields are included so the API layer can format
// lock messages without re-deriving them.
type EligibilityVerdict struct {
	Allowed bool     `json:"allowed"`
	Reasons []Reason `json:"reasons,omitempty"`

	RequiredLevel  *domain.Level  `json:"required_level,omitempty"`
	RequiredGender *domain.Gender `json:"required_gender,omitempty"`
	RequiresBayah  bool           `json:"requires_bayah"`
}

// EligibilityService evaluates content rules against user attributes.
// Rules on ancestor nodes compose additively; evaluation never mutates state.
type EligibilityService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewEligibilityService creates a new eligibility service.
func NewEligibilityService(store *store.Store, logger *slog.Logger) *EligibilityService {
	return &EligibilityService{
		store:  store,
		logger: logger,
	}
}

// Evaluate collects the rules attached to the node and its ancestors, root
// first, and evaluates them against the user. A node with no rules anywhere
// in its chain is unconditionally allowed.
func (s *EligibilityService) Evaluate(ctx context.Context, user *domain.User, node domain.NodeRef) (*EligibilityVerdict, error) {
	rules, err := s.collectRules(ctx, node)
	if err != nil {
		return nil, err
	}
	return EvaluateRules(user, rules), nil
}

// collectRules resolves the node's ancestor chain and gathers the rules
// attached along it, ordered course then module then lesson. Nodes without a
// rule contribute nothing.
func (s *EligibilityService) collectRules(ctx context.Context, node domain.NodeRef) ([]*domain.ContentRule, error) {
	var chain []domain.NodeRef

	switch node.Kind {
	case domain.NodeCourse:
		chain = []domain.NodeRef{node}
	case domain.NodeModule:
		module, err := s.store.GetModule(ctx, node.ID)
		if err != nil {
			return nil, fmt.Errorf("get module: %w", err)
		}
		chain = []domain.NodeRef{
			{Kind: domain.NodeCourse, ID: module.CourseID},
			node,
		}
	case domain.NodeLesson:
		lesson, err := s.store.GetLesson(ctx, node.ID)
		if err != nil {
			return nil, fmt.Errorf("get lesson: %w", err)
		}
		chain = []domain.NodeRef{
			{Kind: domain.NodeCourse, ID: lesson.CourseID},
			{Kind: domain.NodeModule, ID: lesson.ModuleID},
			node,
		}
	default:
		return nil, fmt.Errorf("unknown node kind %q", node.Kind)
	}

	rules := make([]*domain.ContentRule, 0, len(chain))
	for _, ref := range chain {
		rule, err := s.store.GetContentRule(ctx, ref)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("get content rule for %s: %w", ref.Key(), err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// EvaluateRules evaluates an ordered rule chain against a user. Pure function:
// deterministic, no I/O, no mutation.
//
// Rules compose additively. RequiresBayah is OR'd across the chain, the
// highest-ranked MinLevel wins, and Gender must agree across the chain. Two
// rules naming different genders make the node inaccessible to everyone,
// short-circuiting every other check.
func EvaluateRules(user *domain.User, rules []*domain.ContentRule) *EligibilityVerdict {
	verdict := &EligibilityVerdict{}

	for _, rule := range rules {
		if rule.Gender != nil {
			if verdict.RequiredGender != nil && *verdict.RequiredGender != *rule.Gender {
				return &EligibilityVerdict{
					Allowed: false,
					Reasons: []Reason{ReasonConflictingGenderRules},
				}
			}
			g := *rule.Gender
			verdict.RequiredGender = &g
		}
		verdict.RequiresBayah = verdict.RequiresBayah || rule.RequiresBayah
		if rule.MinLevel != nil {
			if verdict.RequiredLevel == nil || rule.MinLevel.Rank() > verdict.RequiredLevel.Rank() {
				lvl := *rule.MinLevel
				verdict.RequiredLevel = &lvl
			}
		}
	}

	if verdict.RequiresBayah && !user.HasBayah {
		verdict.Reasons = append(verdict.Reasons, ReasonRequiresBayah)
	}
	if verdict.RequiredGender != nil && user.Gender != *verdict.RequiredGender {
		verdict.Reasons = append(verdict.Reasons, ReasonGenderMismatch)
	}
	if verdict.RequiredLevel != nil && !user.EffectiveLevel().AtLeast(*verdict.RequiredLevel) {
		verdict.Reasons = append(verdict.Reasons, ReasonLevelTooLow)
	}

	verdict.Allowed = len(verdict.Reasons) == 0
	return verdict
}
