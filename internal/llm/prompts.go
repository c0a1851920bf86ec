package llm

import (
	"encoding/json"
	"fmt"
)

// mappingSystemPrompt constrains the model to the candidate subset when
// mapping a noisy customer name. The model may only answer with a string from
// the list or the "null" sentinel.
func mappingSystemPrompt(candidates []string) string {
	list, _ := json.Marshal(candidates)
	return fmt.Sprintf(
		"You are a customer name mapping assistant. Map the input name to the EXACT customer from the list.\n"+
			"Handle typos, abbreviations, variations, and numbers (e.g., '2015' as a year). "+
			"Return ONLY the exact customer string from the list, or 'null' if no match.\n\n"+
			"CUSTOMERS:\n%s", list)
}

// extractionSystemPrompt asks for a full (customer, amount, product) triple as
// strict JSON, with "null" as the explicit failure sentinel.
func extractionSystemPrompt(candidates []string) string {
	list, _ := json.Marshal(candidates)
	return fmt.Sprintf(
		"You are an order processing assistant for a meat distribution business based in Georgia. "+
			"Your task is to extract order information from customer messages and map customer names to the exact names from the provided list.\n\n"+
			"AVAILABLE CUSTOMERS:\n%s\n\n"+
			"INSTRUCTIONS:\n"+
			"1. Extract customer name, amount (number), and product from the message\n"+
			"2. Map the customer name to the EXACT name from the list above (handle typos and variations)\n"+
			"3. Amount should be a positive number (remove units like GEL, kg, ლარი, კგ)\n"+
			"4. Product should be the item being ordered\n"+
			"5. Return ONLY valid JSON: {\"customer\": \"exact_name_from_list\", \"amount\": number, \"product\": \"item_name\"}\n"+
			"6. If you cannot extract all three fields clearly, return: null\n\n"+
			"Examples:\n"+
			"Input: 'შპს მაგსი 20 საქონლის ბარკალი'\n"+
			"Output: {\"customer\": \"(405135946-დღგ) შპს მაგსი\", \"amount\": 20, \"product\": \"საქონლის ბარკალი\"}\n\n"+
			"Input: 'ბაჩუკი 15 ხორცი'\n"+
			"Output: {\"customer\": \"(62004022906) ბაჩუკი უშხვანი\", \"amount\": 15, \"product\": \"ხორცი\"}", list)
}
