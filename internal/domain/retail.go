package domain

import "github.com/trainloop/repsim/internal/persona"

// RetailVariant returns the configuration for sales-associate training in an
// electronics store setting.
func RetailVariant() *Variant {
	return &Variant{
		Kind:        Retail,
		TraineeRole: "Sales Associate",
		Business:    "shopping",

		PriorityRules: []persona.PriorityRule{
			{Class: "loyal", Order: []persona.Trait{persona.TraitExpectations, persona.TraitPoliteness, persona.TraitPatience}},
			{Class: "first-time", Order: []persona.Trait{persona.TraitKnowledge, persona.TraitPatience, persona.TraitPoliteness}},
			{Class: "bargain", Order: []persona.Trait{persona.TraitPatience, persona.TraitExpectations, persona.TraitPoliteness}},
			{Class: "complaint", Order: []persona.Trait{persona.TraitPatience, persona.TraitExpectations, persona.TraitPoliteness}},
		},
		FallbackPriority: []persona.Trait{persona.TraitPatience, persona.TraitPoliteness, persona.TraitKnowledge, persona.TraitExpectations},

		ClassifierRules: []ClassifierRule{
			{Tag: TagAskingName, Phrases: []string{"your name", "what is your name", "who are you", "may i know your name"}},
			{Tag: TagAskingWellbeing, Phrases: []string{"how are you", "how do you do", "how is your day"}},
			{Tag: TagGreeting, Phrases: []string{"hello", "hi", "namaste", "greetings", "welcome"}},
			{Tag: TagAskingPurpose, Phrases: []string{"how can i help", "what brings you", "looking for", "what are you after"}},
			{Tag: TagAskingPriceOrFees, Phrases: []string{"price", "cost", "how much", "discount", "offer", "emi"}},
			{Tag: TagAskingFeatures, Phrases: []string{"specs", "specifications", "features", "battery", "screen", "camera"}},
			{Tag: TagAskingWarranty, Phrases: []string{"warranty", "guarantee", "return policy", "replacement", "repair"}},
		},

		SatisfactionPhrases: []string{
			"completed your purchase",
			"placed your order",
			"processed your refund",
			"resolved your issue",
			"applied the discount",
			"arranged the replacement",
		},
		ClosingQuestions: []string{
			"is there anything else i can help you with",
			"would you like to check out",
			"anything else you'd like to see",
			"have i addressed all your concerns",
		},
		MinEndingTurns: 6,
		ClosingLine:    "Thank you for your help. Have a good day.",

		FemaleMisaddress: []string{"sir", "bhai", "bhaiya", "gentleman", "brother"},
		MaleMisaddress:   []string{"ma'am", "madam", "miss", "sister", "lady", "didi"},

		GreetingTokens:   []string{"hello", "hi", "namaste"},
		InitialClarifier: "Hello! I'm looking for some help with a purchase.",
		LaterClarifier:   "Can you tell me more about this product?",

		EchoAlternatives: []string{
			"I've seen this cheaper elsewhere. Can you match the price?",
			"I shop here often. What can you do for a regular customer?",
			"I'm not convinced yet. What makes this model better?",
			"Could you show me something in a lower price range?",
			"Does this come with a proper warranty?",
			"I had a bad experience with my last purchase here.",
			"Which of these would you recommend and why?",
			"Is this the latest model or is a new one coming out?",
		},

		ImpatienceMarkers: []string{"Quickly,", "Jaldi batao,", "Look,", "Just tell me,"},
		Flavors: []Flavor{
			{Class: "loyal", Chance: 0.4, Phrases: []string{
				"As a regular customer,",
				"I shop here often,",
				"You know I always buy from this store,",
			}},
		},

		OpeningPools: []Pool{
			{Class: "loyal", Early: []string{
				"Hello! I'm back again, I need help picking an upgrade.",
				"Hi there! You helped me last time, I'm looking for something new today.",
				"Namaste. I buy all my electronics here, I need a recommendation.",
			}},
			{Class: "first-time", Early: []string{
				"Hello! This is my first time in your store. Where do I start?",
				"Hi. I don't know much about gadgets, can you guide me?",
				"Namaste. I'm looking to buy my first smartphone.",
			}},
			{Class: "", Early: []string{
				"Hello! I'm looking for some help with a purchase.",
				"Hi there! I have a few questions about your products.",
				"Namaste! Can you help me choose the right product?",
			}},
		},

		TurnPools: []Pool{
			{
				Class: "loyal",
				Early: []string{
					"I've bought a lot from this store. What can you offer me?",
					"Your colleague usually gives me a loyalty discount. Is that possible?",
					"I'd like to see your newest stock first.",
					"I trust this store, so convince me this is the right choice.",
				},
				Later: []string{
					"What loyalty benefits apply to this purchase?",
					"Can you speed this up? I know how this usually works.",
					"I'd like to speak to the store manager about this.",
					"This isn't the service I'm used to here.",
				},
			},
			{
				Class: "bargain",
				Later: []string{
					"Is that really your best price?",
					"What if I pay cash, any extra discount?",
					"Throw in some accessories and we have a deal.",
					"I'll wait for the sale unless you can do better.",
				},
			},
			{
				Class: "",
				Early: []string{
					"Can you explain the differences between these models?",
					"What would you recommend for my budget?",
					"How does this compare to the other brands you carry?",
					"What do most customers choose here?",
				},
				Later: []string{
					"Can you put that in writing?",
					"How long would delivery take?",
					"What's the next step if I decide to buy?",
					"Is there anything else I should know before deciding?",
				},
			},
		},

		Categories: []ScoreCategory{
			{Key: "grammar", Label: "Grammar"},
			{Key: "customer_handling", Label: "Customer Handling"},
		},

		GenericSuggestions: []string{
			"Learn the key specifications of popular products to answer questions confidently.",
			"Practice active listening to understand what the customer actually needs.",
			"Offer comparisons between models instead of pushing a single product.",
			"Be upfront about pricing, warranty and return policies.",
			"Develop rapport with returning customers to build loyalty.",
		},
	}
}
