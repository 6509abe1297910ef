package types

// Mood is the agent's rolling emotional read of the stream.
type Mood string

const (
	MoodNeutral Mood = "neutral"
	MoodHappy   Mood = "happy"
	MoodAnnoyed Mood = "annoyed"
	MoodScared  Mood = "scared"
	MoodAngry   Mood = "angry"
	MoodBored   Mood = "bored"
)

// ConversationState classifies the overall register of the conversation.
type ConversationState string

const (
	ConversationIdle         ConversationState = "idle"
	ConversationEngaged      ConversationState = "engaged"
	ConversationFrustrated   ConversationState = "frustrated"
	ConversationCelebratory  ConversationState = "celebratory"
	ConversationStorytelling ConversationState = "storytelling"
)

// FlowState classifies who currently owns the conversational floor.
type FlowState string

const (
	// FlowNatural is ordinary back-and-forth
	FlowNatural FlowState = "natural"
	// FlowDominated means the operator is monologuing; do not interrupt
	FlowDominated FlowState = "dominated"
	// FlowStaccato means rapid short exchanges; match tempo
	FlowStaccato FlowState = "staccato"
	// FlowDeadAir means nobody is talking
	FlowDeadAir FlowState = "dead_air"
)

// UserIntent is the analyst's read of what the operator wants right now.
type UserIntent string

const (
	IntentCasual      UserIntent = "casual"
	IntentValidation  UserIntent = "validation"
	IntentHelpSeeking UserIntent = "help_seeking"
	IntentProvoking   UserIntent = "provoking"
	IntentInfoSeeking UserIntent = "info_seeking"
)

// SceneType classifies the current phase of the stream.
type SceneType string

const (
	SceneChillChatting     SceneType = "chill_chatting"
	SceneExploration       SceneType = "exploration"
	SceneCombatHigh        SceneType = "combat_high"
	SceneMenuing           SceneType = "menuing"
	SceneHorrorTension     SceneType = "horror_tension"
	SceneComedyMoment      SceneType = "comedy_moment"
	SceneTechnicalDowntime SceneType = "technical_downtime"
)

// AllScenes lists every scene, used by the classifier for scoring and
// cooldown bookkeeping.
var AllScenes = []SceneType{
	SceneChillChatting,
	SceneExploration,
	SceneCombatHigh,
	SceneMenuing,
	SceneHorrorTension,
	SceneComedyMoment,
	SceneTechnicalDowntime,
}

// BotGoal is the agent's current high-level objective.
type BotGoal string

const (
	GoalObserve     BotGoal = "observe"
	GoalEntertain   BotGoal = "entertain"
	GoalSupport     BotGoal = "support"
	GoalInvestigate BotGoal = "investigate"
	GoalTroll       BotGoal = "troll"
)

// Momentum is the direction the emotional trend is moving.
type Momentum string

const (
	MomentumStable             Momentum = "stable"
	MomentumEscalatingPositive Momentum = "escalating_positive"
	MomentumEscalatingNegative Momentum = "escalating_negative"
)

// ActionCategory classifies a delivered bot action for the feedback loop.
type ActionCategory string

const (
	ActionJoke     ActionCategory = "joke"
	ActionQuestion ActionCategory = "question"
	ActionRoast    ActionCategory = "roast"
	ActionSupport  ActionCategory = "support"
)

// ClassifyAction infers the category of a delivered reply from its text.
// Question detection dominates because questions create conversational debt.
func ClassifyAction(text string) ActionCategory {
	for _, r := range text {
		if r == '?' {
			return ActionQuestion
		}
	}
	return ActionJoke
}
