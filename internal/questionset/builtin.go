package questionset

import "github.com/stemsi/quizrunner/internal/model"

// Builtin returns the bundled AI-fundamentals question set.
func Builtin() []model.Question {
	return []model.Question{
		{
			ID:         "q1",
			Category:   "AI Fundamentals",
			Difficulty: 2,
			Type:       "Single choice",
			Prompt:     "Which statement best describes the goal of supervised learning?",
			Options: []string{
				"Discover structure in data that has no labels",
				"Learn the mapping between inputs and their correct labels in order to predict",
				"Learn an action policy that maximises a reward",
				"Encrypt data to make it more secure",
			},
			AnswerIndex: 1,
			Explanation: "Supervised learning learns the relationship between inputs and correct labels from labelled pairs, then predicts labels for unseen data.",
		},
		{
			ID:         "q2",
			Category:   "Statistics & Evaluation",
			Difficulty: 3,
			Type:       "Single choice",
			Prompt:     "In binary classification, which is the correct definition of precision?",
			Options: []string{
				"TP / (TP + FN)",
				"TP / (TP + FP)",
				"TN / (TN + FP)",
				"(TP + TN) / all samples",
			},
			AnswerIndex: 1,
			Explanation: "Precision is the share of samples predicted positive that really are positive: TP / (TP + FP).",
		},
		{
			ID:         "q3",
			Category:   "Deep Learning",
			Difficulty: 2,
			Type:       "Single choice",
			Prompt:     "Which explanation best captures why CNNs perform well at image recognition?",
			Options: []string{
				"They can process images without ever turning them into vectors",
				"Convolutions extract local features and weight sharing cuts the parameter count",
				"They need no labelled training data",
				"They are always highly explainable",
			},
			AnswerIndex: 1,
			Explanation: "Convolution and weight sharing handle local features efficiently while keeping the number of parameters low.",
		},
	}
}
