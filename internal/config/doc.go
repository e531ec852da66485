// Package config provides configuration management for capctl.
//
// Configuration is loaded from multiple sources and merged in order, later
// sources overriding earlier ones:
//
//  1. Default configuration (GetDefaultConfig), a local Ollama backend
//  2. User configuration (~/.config/capctl/config.yaml)
//  3. Project configuration (./.capctl/config.yaml)
//
// An explicit file given with --config replaces layers 2 and 3.
//
// # Configuration Structure
//
//	backend: ollama            # ollama, azure or simulated
//	logging:
//	  level: info
//	  format: text             # or json
//	ollama:
//	  host: http://127.0.0.1:11434
//	  model: llama3.2
//	  keepAlive: 5m
//	azure:
//	  endpoint: https://my-resource.openai.azure.com
//	  apiKeyEnv: AZURE_OPENAI_API_KEY
//	  deployment: gpt-4o-mini
//	simulated:
//	  initialStatus: downloadable
//	  downloadSteps: 10
//	  stepDelay: 50ms
//	  chunkDelay: 20ms
//	capabilities:
//	  prompt:      {systemPrompt: "You are a helpful and friendly assistant.", temperature: 0.7}
//	  translator:  {sourceLanguage: en, targetLanguage: kn}
//	  summarizer:  {type: key-points, format: markdown, length: medium}
//	  proofreader: {expectedInputLanguages: [en]}
//	messages:
//	  translator:
//	    notSupported: "Translator API is not supported"
//	server:
//	  transport: stdio         # stdio, sse or streamable-http
//	  host: localhost
//	  port: 8090
//	  metricsAddr: ":9464"
//
// # Environment Variable Expansion
//
// Values may reference the environment before parsing:
//
//	endpoint: "${AZURE_OPENAI_ENDPOINT}"
//	model: "${CAPCTL_MODEL:-llama3.2}"
package config
