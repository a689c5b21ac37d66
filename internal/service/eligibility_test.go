package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
)

func TestEvaluateRules_NoRules(t *testing.T) {
	user := &domain.User{Level: domain.LevelBeginner}

	verdict := EvaluateRules(user, nil)

	assert.True(t, verdict.Allowed)
	assert.Empty(t, verdict.Reasons)
	assert.Nil(t, verdict.RequiredLevel)
	assert.Nil(t, verdict.RequiredGender)
	assert.False(t, verdict.RequiresBayah)
}

func TestEvaluateRules_ConflictingGenders_AlwaysDenies(t *testing.T) {
	courseRule := &domain.ContentRule{Gender: genderPtr(domain.GenderMale)}
	lessonRule := &domain.ContentRule{Gender: genderPtr(domain.GenderFemale)}

	users := []*domain.User{
		{Gender: domain.GenderMale, Level: domain.LevelExpert, HasBayah: true},
		{Gender: domain.GenderFemale, Level: domain.LevelExpert, HasBayah: true},
		{Level: domain.LevelBeginner},
	}
	for _, user := range users {
		verdict := EvaluateRules(user, []*domain.ContentRule{courseRule, lessonRule})

		assert.False(t, verdict.Allowed)
		assert.Equal(t, []Reason{ReasonConflictingGenderRules}, verdict.Reasons)
	}
}

func TestEvaluateRules_SameGenderTwice_NoConflict(t *testing.T) {
	rules := []*domain.ContentRule{
		{Gender: genderPtr(domain.GenderFemale)},
		{Gender: genderPtr(domain.GenderFemale)},
	}

	verdict := EvaluateRules(&domain.User{Gender: domain.GenderFemale}, rules)

	assert.True(t, verdict.Allowed)
	require.NotNil(t, verdict.RequiredGender)
	assert.Equal(t, domain.GenderFemale, *verdict.RequiredGender)
}

func TestEvaluateRules_GenderMismatch(t *testing.T) {
	rules := []*domain.ContentRule{{Gender: genderPtr(domain.GenderFemale)}}

	t.Run("wrong gender", func(t *testing.T) {
		verdict := EvaluateRules(&domain.User{Gender: domain.GenderMale}, rules)
		assert.False(t, verdict.Allowed)
		assert.Contains(t, verdict.Reasons, ReasonGenderMismatch)
	})

	t.Run("undisclosed gender", func(t *testing.T) {
		verdict := EvaluateRules(&domain.User{}, rules)
		assert.False(t, verdict.Allowed)
		assert.Contains(t, verdict.Reasons, ReasonGenderMismatch)
	})
}

func TestEvaluateRules_HighestLevelWins(t *testing.T) {
	rules := []*domain.ContentRule{
		{MinLevel: levelPtr(domain.LevelExpert)},
		{MinLevel: levelPtr(domain.LevelIntermediate)},
	}

	verdict := EvaluateRules(&domain.User{Level: domain.LevelIntermediate}, rules)

	assert.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reasons, ReasonLevelTooLow)
	require.NotNil(t, verdict.RequiredLevel)
	assert.Equal(t, domain.LevelExpert, *verdict.RequiredLevel)
}

func TestEvaluateRules_RaisingLevelFlipsVerdict(t *testing.T) {
	rules := []*domain.ContentRule{{MinLevel: levelPtr(domain.LevelIntermediate)}}

	denied := EvaluateRules(&domain.User{Level: domain.LevelBeginner}, rules)
	assert.False(t, denied.Allowed)
	assert.Equal(t, []Reason{ReasonLevelTooLow}, denied.Reasons)

	allowed := EvaluateRules(&domain.User{Level: domain.LevelIntermediate}, rules)
	assert.True(t, allowed.Allowed)
}

func TestEvaluateRules_BayahORAcrossChain(t *testing.T) {
	rules := []*domain.ContentRule{
		{},
		{RequiresBayah: true},
	}

	denied := EvaluateRules(&domain.User{}, rules)
	assert.False(t, denied.Allowed)
	assert.Equal(t, []Reason{ReasonRequiresBayah}, denied.Reasons)
	assert.True(t, denied.RequiresBayah)

	allowed := EvaluateRules(&domain.User{HasBayah: true}, rules)
	assert.True(t, allowed.Allowed)
}

func TestEvaluateRules_MultipleReasonsOrdered(t *testing.T) {
	rules := []*domain.ContentRule{{
		RequiresBayah: true,
		Gender:        genderPtr(domain.GenderFemale),
		MinLevel:      levelPtr(domain.LevelExpert),
	}}

	verdict := EvaluateRules(&domain.User{Gender: domain.GenderMale, Level: domain.LevelBeginner}, rules)

	assert.False(t, verdict.Allowed)
	assert.Equal(t, []Reason{ReasonRequiresBayah, ReasonGenderMismatch, ReasonLevelTooLow}, verdict.Reasons)
}

func TestEligibilityService_Evaluate_CourseRuleAppliesToLesson(t *testing.T) {
	testStore := newTestStore(t)
	svc := NewEligibilityService(testStore, testLogger())
	ctx := context.Background()

	course := createTestCourse(t, testStore, "Purification")
	module := createTestModule(t, testStore, course.ID, 1)
	lesson := createTestLesson(t, testStore, module, 1, nil)
	attachRule(t, testStore, domain.NodeRef{Kind: domain.NodeCourse, ID: course.ID}, func(r *domain.ContentRule) {
		r.MinLevel = levelPtr(domain.LevelIntermediate)
	})

	user := createTestUser(t, testStore, nil)

	verdict, err := svc.Evaluate(ctx, user, lesson.Node())
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reasons, ReasonLevelTooLow)
}

func TestEligibilityService_Evaluate_NoRulesAnywhere(t *testing.T) {
	testStore := newTestStore(t)
	svc := NewEligibilityService(testStore, testLogger())

	course := createTestCourse(t, testStore, "Open Course")
	module := createTestModule(t, testStore, course.ID, 1)
	lesson := createTestLesson(t, testStore, module, 1, nil)
	user := createTestUser(t, testStore, nil)

	verdict, err := svc.Evaluate(context.Background(), user, lesson.Node())
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
}

func TestEligibilityService_Evaluate_ModuleNode(t *testing.T) {
	testStore := newTestStore(t)
	svc := NewEligibilityService(testStore, testLogger())

	course := createTestCourse(t, testStore, "Course")
	module := createTestModule(t, testStore, course.ID, 1)
	attachRule(t, testStore, domain.NodeRef{Kind: domain.NodeModule, ID: module.ID}, func(r *domain.ContentRule) {
		r.RequiresBayah = true
	})
	user := createTestUser(t, testStore, nil)

	verdict, err := svc.Evaluate(context.Background(), user, domain.NodeRef{Kind: domain.NodeModule, ID: module.ID})
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, []Reason{ReasonRequiresBayah}, verdict.Reasons)
}
