package domain

import "github.com/trainloop/repsim/internal/persona"

// BankingVariant returns the configuration for bank-representative training.
func BankingVariant() *Variant {
	return &Variant{
		Kind:        Banking,
		TraineeRole: "Bank Representative",
		Business:    "banking",

		PriorityRules: []persona.PriorityRule{
			{Class: "premium", Order: []persona.Trait{persona.TraitExpectations, persona.TraitPoliteness, persona.TraitPatience}},
			{Class: "new", Order: []persona.Trait{persona.TraitKnowledge, persona.TraitPatience, persona.TraitPoliteness}},
			{Class: "applicant", Order: []persona.Trait{persona.TraitKnowledge, persona.TraitPatience, persona.TraitPoliteness}},
			{Class: "dissatisfied", Order: []persona.Trait{persona.TraitPatience, persona.TraitExpectations, persona.TraitPoliteness}},
			{Class: "complaint", Order: []persona.Trait{persona.TraitPatience, persona.TraitExpectations, persona.TraitPoliteness}},
		},
		FallbackPriority: []persona.Trait{persona.TraitPatience, persona.TraitPoliteness, persona.TraitKnowledge, persona.TraitExpectations},

		ClassifierRules: []ClassifierRule{
			{Tag: TagAskingName, Phrases: []string{"your name", "what is your name", "who are you", "may i know your name"}},
			{Tag: TagAskingWellbeing, Phrases: []string{"how are you", "how do you do", "how is your day"}},
			{Tag: TagGreeting, Phrases: []string{"hello", "hi", "namaste", "greetings"}},
			{Tag: TagAskingIdentity, Phrases: []string{"account number", "customer id", "identification", "verify your identity"}},
			{Tag: TagAskingPurpose, Phrases: []string{"purpose of your visit", "how can i help", "what brings you"}},
			{Tag: TagAskingPriceOrFees, Phrases: []string{"interest rate", "roi", "what rate", "interest percentage", "fee", "charges", "service charge", "maintenance", "minimum balance"}},
			{Tag: TagAskingFeatures, Phrases: []string{"key features", "features", "benefits", "what does it offer"}},
		},

		SatisfactionPhrases: []string{
			"completed your transaction",
			"processed your request",
			"submitted your application",
			"resolved your issue",
			"waived the fee",
			"updated your account",
		},
		ClosingQuestions: []string{
			"is there anything else i can help you with",
			"would you like assistance with anything else",
			"is there something else you'd like to discuss",
			"have i addressed all your concerns",
		},
		MinEndingTurns: 6,
		ClosingLine:    "Thank you for your help. Have a good day.",

		FemaleMisaddress: []string{"sir", "bhai", "bhaiya", "gentleman", "brother"},
		MaleMisaddress:   []string{"ma'am", "madam", "miss", "sister", "lady", "didi"},

		GreetingTokens:   []string{"hello", "hi", "namaste"},
		InitialClarifier: "Hello! I need some help with my banking issue.",
		LaterClarifier:   "Can you explain the charges on my account?",

		EchoAlternatives: []string{
			"I expect better service given my account status. What options do I have?",
			"As a premium client, I need this resolved quickly. What can you do?",
			"I've been with your bank for years. How will you address this issue?",
			"My relationship manager usually handles this. Can you check my account notes?",
			"I'm new to banking. Could you explain the process more simply?",
			"What documents do I need to open an account?",
			"I'm comparing different banks. What makes your accounts special?",
			"Are there any hidden charges I should know about?",
			"The app keeps showing an error. How can I fix this?",
			"Is the server down? My transactions aren't going through.",
			"I prefer solving this online. Is there a digital solution?",
			"The authentication process isn't working. What should I do?",
			"Will this affect my credit score? I'm worried about that.",
			"I don't understand why these charges were applied. Can you explain?",
			"Is there any way to avoid these fees in the future?",
			"When will the overdraft charges be removed from my account?",
		},

		ImpatienceMarkers: []string{"Quickly,", "Jaldi batao,", "Look,", "Just tell me,"},
		Flavors: []Flavor{
			{Class: "premium", Chance: 0.4, Phrases: []string{
				"As a premium customer,",
				"Given my account status,",
				"I expect better service,",
			}},
		},

		OpeningPools: []Pool{
			{Class: "premium", Early: []string{
				"Hello! I'm having an issue with my premium account that needs immediate attention.",
				"Namaste. I'm a premium account holder and need assistance with some charges.",
				"Hi there. I need to discuss my account privileges.",
			}},
			{Class: "new", Early: newApplicantOpenings()},
			{Class: "applicant", Early: newApplicantOpenings()},
			{Class: "digital", Early: []string{
				"Hi there! I'm facing issues with your mobile banking app.",
				"Hello! My UPI transactions are failing since yesterday.",
				"Namaste. Need help with your internet banking services.",
			}},
			{Class: "", Early: []string{
				"Hello! I need help with a banking issue.",
				"Hi there! I have some questions about my account.",
				"Namaste! I need assistance with my banking services.",
			}},
		},

		TurnPools: []Pool{
			{
				Class: "premium",
				Early: []string{
					"I expect this issue to be resolved promptly given my premium status.",
					"My relationship manager usually handles this. Is he available?",
					"I'd like to speak with someone who's familiar with premium accounts.",
					"I've been a premium customer for years. How will you help me today?",
				},
				Later: []string{
					"What special consideration can you offer me as a premium customer?",
					"How quickly can this be resolved?",
					"I'd like to speak to a manager about this.",
					"This level of service is below what I expect from my bank.",
				},
			},
			{Class: "new", Early: newApplicantTurns()},
			{Class: "applicant", Early: newApplicantTurns()},
			{
				Class: "digital",
				Early: []string{
					"The app keeps showing error code 503. What does that mean?",
					"When will the system be back online?",
					"Is there a way to complete this transaction without using the app?",
					"My password reset link isn't working. What should I do?",
				},
			},
			{Class: "overdraft", Later: overdraftTurns()},
			{Class: "dissatisfied", Later: overdraftTurns()},
			{
				Class: "",
				Early: []string{
					"Can you explain these charges on my statement?",
					"I need to understand what happened with my account.",
					"How do I resolve this banking issue?",
					"What options do I have in this situation?",
				},
				Later: []string{
					"Can you give me that information in writing?",
					"How long will this process take?",
					"What's the next step?",
					"Is there anything else I need to know?",
				},
			},
		},

		Categories: []ScoreCategory{
			{Key: "banking_knowledge", Label: "Banking Knowledge"},
			{Key: "customer_handling", Label: "Customer Handling"},
			{Key: "policy_adherence", Label: "Policy Adherence"},
		},

		GenericSuggestions: []string{
			"Improve knowledge of specific banking products and services to provide more accurate information.",
			"Practice active listening to better understand customer concerns and address them directly.",
			"Familiarize yourself with banking regulations and policies to ensure compliance in all interactions.",
			"Develop more empathy when dealing with customers experiencing financial difficulties.",
			"Learn proper escalation procedures for different types of banking issues.",
		},
	}
}

func newApplicantOpenings() []string {
	return []string{
		"Hello! I'm interested in opening my first account with your bank.",
		"Namaste. I'd like to know the process for opening a new account.",
		"Hi. I'm looking for information about your bank's accounts for new customers.",
	}
}

func newApplicantTurns() []string {
	return []string{
		"What are the required documents for opening an account?",
		"How long does the account opening process take?",
		"What's the minimum balance requirement for your accounts?",
		"Do I need to visit a branch or can everything be done online?",
	}
}

func overdraftTurns() []string {
	return []string{
		"Will this affect my credit score?",
		"How can I avoid this happening again?",
		"Can you waive the fee this one time?",
		"I don't understand why this happened to my account.",
	}
}
