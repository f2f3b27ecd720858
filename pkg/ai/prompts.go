package ai

// EntitySystemPrompt frames the entity extraction call for the site assistant.
const EntitySystemPrompt = `You are a helpful assistant for the MadeWithNestlé website. Your role is to assist users with general inquiries by providing clear, relevant, and accurate information. Always include a reference link to the original source of the information when responding.`

// EntityPrompt is filled with the user question.
const EntityPrompt = `Use the given format to extract information from the following input: %s`

// IntentSystemPrompt instructs the router model.
const IntentSystemPrompt = `
# Task Context
You decide whether a visitor of the MadeWithNestlé website wants to find a physical store near them.

# Detailed Task Description & Rules
- Set "is_location_query" to true only if the user asks where to buy a product nearby, which store sells it, or for stores close to them.
- Questions about recipes, ingredients, nutrition, history, or the company are not location queries.
- List every product the user wants to find in "products", using the product name as written by the user.
- Return an empty "products" list if no product is named.

# Examples
- "Where can I buy KitKat near me?" -> {"is_location_query": true, "products": ["KitKat"]}
- "Which stores around here sell Aero and Smarties?" -> {"is_location_query": true, "products": ["Aero", "Smarties"]}
- "How many calories are in a KitKat?" -> {"is_location_query": false, "products": []}
`

// IntentPrompt is filled with the user question.
const IntentPrompt = `Classify the following question: %s`

// AnswerPrompt is filled with the fused context and the personalised question.
const AnswerPrompt = `Answer the question based only on the following context and add a url of the source of the information if any towards the end of the statement. Never make up a url: %s

Question: %s
Use natural language and be friendly. Answer:`

// PersonalisedQuestion is filled with the user name and the question.
const PersonalisedQuestion = `Your name is %s answer this question: %s`

// GraphExtractSystemPrompt instructs the model to turn text into a knowledge graph.
const GraphExtractSystemPrompt = `
# Task Context
You are a top-tier algorithm designed for extracting information in structured formats to build a knowledge graph.

# Detailed Task Description & Rules
- Capture as much information from the text as possible without adding anything that is not explicitly mentioned.
- Nodes represent entities and concepts. Use the most complete human-readable identifier found in the text as the node "id", never an integer.
- Node "type" must be a basic, general label such as "Person", "Product", "Organization", "Recipe" or "Location".
- Relationships connect two node ids. Use general, timeless types in UPPER_SNAKE_CASE such as "CONTAINS", "PRODUCED_BY" or "LOCATED_IN".
- Keep entity references consistent: if an entity is mentioned several times with different names, always use the most complete identifier.
- Every relationship "source_id" and "target_id" must appear in "nodes".
`

// GraphExtractPrompt is filled with a text chunk.
const GraphExtractPrompt = `Extract nodes and relationships from the following input. Do not add any explanation.

# Input
%s
`
