package openai

import "fmt"

const systemInstruction = `You extract structured classified-ad listing data from transcribed voice notes.
Return a single JSON object with exactly these keys:
"id", "title", "brand", "color", "itemDescription", "isUnisex",
"measurementLength", "measurementWidth", "price", "size", "status".
"isUnisex" is a boolean. "measurementLength" and "measurementWidth" are
numbers in centimeters. "price" is a number in euros. Every other value is a
string. Omit any key you cannot determine from the text; never invent values.`

func buildPrompt(text, language string) []chatMessage {
	if language == "" {
		language = "French"
	}
	user := fmt.Sprintf("The text was spoken in %s.\n\nText: %s", language, text)
	return []chatMessage{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: user},
	}
}
