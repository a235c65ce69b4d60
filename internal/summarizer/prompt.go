package summarizer

// SystemPrompt instructs the model how to read the review payload.
const SystemPrompt = "You are going to get some reviews for a specific videogame on Steam. " +
	"Sometimes they contain jokes or sarcasm reviews, these should be ignored. " +
	"Try to infer a description of the game based on the reviews in a short paragraph with at most 100 words, " +
	"then give it a score from 0 to 10 based on the feelings. " +
	"Then list positive factors, and negative factors by order of importance, at most 10 total factors, around 5 words each. " +
	"If the game is more positive than negative, give more positive factors than negative. " +
	"In example, if the game has a score of 8 you should list 8 positive factors and 2 negative factors. " +
	"Try to always give one negative or positive factor at least. " +
	"Give the output in json with the keys summary, score, positive_factors and negative_factors. " +
	"Each factor is an object with text and review_ids, the ids of the reviews it comes from."
