package api

import (
	"net/http"

	"github.com/mattjoyce/launchpad/internal/profile"
)

// handleOpenAPI handles GET /openapi.json.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc(s.deps.Profiles.Describe()))
}

// buildOpenAPIDoc returns an OpenAPI 3.1 document for the API. The spawn
// request schema enumerates the configured profiles.
func buildOpenAPIDoc(profiles []profile.Descriptor) map[string]any {
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID.String())
	}

	secured := []any{map[string]any{"BearerAuth": []string{}}}
	op := func(id, summary string, responses map[string]any) map[string]any {
		return map[string]any{
			"operationId": id,
			"summary":     summary,
			"security":    secured,
			"responses":   responses,
		}
	}
	resp := func(desc string) map[string]any { return map[string]any{"description": desc} }

	spawnOp := op("spawn", "Launch a coding agent", map[string]any{
		"201": resp("Agent started"),
		"400": resp("Invalid request"),
		"403": resp("Insufficient scope"),
		"404": resp("Unknown executor profile"),
		"502": resp("Agent failed to launch"),
	})
	spawnOp["requestBody"] = map[string]any{
		"required": true,
		"content": map[string]any{
			"application/json": map[string]any{"schema": spawnRequestSchema(ids)},
		},
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "launchpad",
			"version": "1.0",
		},
		"paths": map[string]any{
			"/spawn":    map[string]any{"post": spawnOp},
			"/profiles": map[string]any{"get": op("listProfiles", "List executor profiles", map[string]any{"200": resp("Profiles")})},
			"/processes": map[string]any{
				"get": op("listProcesses", "List tracked agent processes", map[string]any{"200": resp("Processes")}),
			},
			"/processes/{id}": map[string]any{
				"get":    op("getProcess", "Get one process with its output tail", map[string]any{"200": resp("Process"), "404": resp("Not found")}),
				"delete": op("killProcess", "Kill a running process", map[string]any{"202": resp("Kill sent"), "404": resp("Not found")}),
			},
			"/approvals": map[string]any{
				"get": op("listApprovals", "Recent approval decisions", map[string]any{"200": resp("Decisions"), "503": resp("Approval log disabled")}),
			},
			"/approvals/check": map[string]any{
				"post": op("checkApproval", "Ask whether a tool use may proceed", map[string]any{"200": resp("Decision"), "400": resp("Invalid request")}),
			},
			"/events": map[string]any{
				"get": op("events", "Server-sent event stream", map[string]any{"200": resp("text/event-stream")}),
			},
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}

func spawnRequestSchema(profileIDs []string) map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	return map[string]any{
		"type":     "object",
		"required": []string{"prompt", "executor_profile_id"},
		"properties": map[string]any{
			"prompt": map[string]any{"type": "string", "minLength": 1},
			"executor_profile_id": map[string]any{
				"oneOf": []any{
					map[string]any{"type": "string", "enum": profileIDs},
					map[string]any{
						"type":     "object",
						"required": []string{"executor"},
						"properties": map[string]any{
							"executor": map[string]any{"type": "string"},
							"variant":  nullableString,
						},
					},
				},
			},
			"working_dir": nullableString,
			"env": map[string]any{
				"type":                 []string{"object", "null"},
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
	}
}
