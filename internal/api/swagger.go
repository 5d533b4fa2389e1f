package api

import "routeplan/internal/buildinfo"

// openAPIDocument builds the OpenAPI 3 description of the service. The
// document is plain Go data; docs.go marshals it to YAML once.
func openAPIDocument() map[string]any {
    obj := func(props map[string]any) map[string]any {
        return map[string]any{"type": "object", "properties": props}
    }
    str := map[string]any{"type": "string"}
    num := map[string]any{"type": "number"}
    integer := map[string]any{"type": "integer"}
    boolean := map[string]any{"type": "boolean"}
    arr := func(items map[string]any) map[string]any {
        return map[string]any{"type": "array", "items": items}
    }
    ref := func(name string) map[string]any {
        return map[string]any{"$ref": "#/components/schemas/" + name}
    }
    jsonBody := func(schema map[string]any) map[string]any {
        return map[string]any{"content": map[string]any{"application/json": map[string]any{"schema": schema}}}
    }
    responses := func(m map[string]any) map[string]any { return m }
    listPage := func(item map[string]any) map[string]any {
        return obj(map[string]any{"items": arr(item), "nextCursor": str})
    }

    costsMatrix := arr(arr(num))

    schemas := map[string]any{
        "Problem": obj(map[string]any{
            "type": str, "title": str, "status": integer, "detail": str, "instance": str,
        }),
        "Address": obj(map[string]any{
            "addressLine": str, "postalCode": str, "locality": str, "countryRegion": str,
        }),
        "Coordinate": obj(map[string]any{"lat": num, "lng": num}),
        "MatrixInput": obj(map[string]any{
            "name": str, "mode": str, "labels": arr(str), "costs": costsMatrix,
        }),
        "Matrix": obj(map[string]any{
            "id": str, "tenantId": str, "name": str, "mode": str,
            "labels": arr(str), "costs": costsMatrix, "createdAt": str,
        }),
        "SolveRequest": obj(map[string]any{
            "matrixId": str, "costs": costsMatrix, "demands": arr(num),
            "capacity": num, "vehicles": integer, "depot": integer,
            "timeBudgetMs": integer, "maxMoves": integer, "starts": integer,
            "workers": integer, "strategy": str,
        }),
        "RouteResult": obj(map[string]any{"stops": arr(integer), "cost": num, "load": num}),
        "Solve": obj(map[string]any{
            "id": str, "tenantId": str, "matrixId": str, "status": str,
            "request": ref("SolveRequest"), "routes": arr(ref("RouteResult")),
            "totalCost": num, "feasible": boolean, "error": str,
            "createdAt": str, "completedAt": str,
        }),
        "SolveStats": obj(map[string]any{
            "starts": integer, "bestStart": integer, "passes": integer,
            "twoOptMoves": integer, "orOptMoves": integer,
            "initialCost": num, "finalCost": num, "elapsedNs": integer,
        }),
        "PlanRequest": obj(map[string]any{
            "addresses": arr(ref("Address")), "mode": str, "demands": arr(num),
            "capacity": num, "vehicles": integer, "timeBudgetMs": integer,
            "starts": integer, "workers": integer, "strategy": str,
        }),
        "PlanStop": obj(map[string]any{"index": integer, "address": str, "coordinate": ref("Coordinate")}),
        "PlanRoute": obj(map[string]any{"stops": arr(ref("PlanStop")), "cost": num}),
        "Plan": obj(map[string]any{
            "matrixId": str, "solveId": str, "mode": str, "totalCost": num,
            "routes": arr(ref("PlanRoute")), "mapsUrl": str,
        }),
        "SubscriptionRequest": obj(map[string]any{"url": str, "events": arr(str), "secret": str}),
        "Subscription": obj(map[string]any{
            "id": str, "tenantId": str, "url": str, "events": arr(str), "createdAt": str,
        }),
    }

    problem := map[string]any{"description": "Problem details", "content": map[string]any{
        "application/problem+json": map[string]any{"schema": ref("Problem")},
    }}

    paths := map[string]any{
        "/healthz": map[string]any{"get": map[string]any{
            "summary":   "Liveness probe",
            "responses": responses(map[string]any{"200": map[string]any{"description": "OK"}}),
        }},
        "/readyz": map[string]any{"get": map[string]any{
            "summary": "Readiness probe",
            "responses": responses(map[string]any{
                "200": map[string]any{"description": "Ready"},
                "503": problem,
            }),
        }},
        "/metrics": map[string]any{"get": map[string]any{
            "summary":   "Prometheus metrics",
            "responses": responses(map[string]any{"200": map[string]any{"description": "Metrics exposition"}}),
        }},
        "/v1/matrices": map[string]any{
            "post": map[string]any{
                "summary":     "Store a cost matrix",
                "requestBody": jsonBody(ref("MatrixInput")),
                "responses": responses(map[string]any{
                    "201": map[string]any{"description": "Created", "content": map[string]any{"application/json": map[string]any{"schema": ref("Matrix")}}},
                    "400": problem,
                }),
            },
            "get": map[string]any{
                "summary": "List matrices",
                "parameters": []any{
                    map[string]any{"name": "cursor", "in": "query", "schema": str},
                    map[string]any{"name": "limit", "in": "query", "schema": integer},
                },
                "responses": responses(map[string]any{
                    "200": map[string]any{"description": "Page", "content": map[string]any{"application/json": map[string]any{"schema": listPage(ref("Matrix"))}}},
                }),
            },
        },
        "/v1/matrices/{id}": map[string]any{"get": map[string]any{
            "summary":    "Fetch a matrix",
            "parameters": []any{map[string]any{"name": "id", "in": "path", "required": true, "schema": str}},
            "responses": responses(map[string]any{
                "200": map[string]any{"description": "Matrix", "content": map[string]any{"application/json": map[string]any{"schema": ref("Matrix")}}},
                "404": problem,
            }),
        }},
        "/v1/solves": map[string]any{
            "post": map[string]any{
                "summary":     "Run an optimization synchronously",
                "requestBody": jsonBody(ref("SolveRequest")),
                "responses": responses(map[string]any{
                    "201": map[string]any{"description": "Solve record", "content": map[string]any{"application/json": map[string]any{"schema": ref("Solve")}}},
                    "400": problem,
                    "422": problem,
                }),
            },
            "get": map[string]any{
                "summary": "List solves",
                "parameters": []any{
                    map[string]any{"name": "status", "in": "query", "schema": str},
                    map[string]any{"name": "cursor", "in": "query", "schema": str},
                    map[string]any{"name": "limit", "in": "query", "schema": integer},
                },
                "responses": responses(map[string]any{
                    "200": map[string]any{"description": "Page", "content": map[string]any{"application/json": map[string]any{"schema": listPage(ref("Solve"))}}},
                }),
            },
        },
        "/v1/solves/{id}": map[string]any{"get": map[string]any{
            "summary":    "Fetch a solve",
            "parameters": []any{map[string]any{"name": "id", "in": "path", "required": true, "schema": str}},
            "responses": responses(map[string]any{
                "200": map[string]any{"description": "Solve", "content": map[string]any{"application/json": map[string]any{"schema": ref("Solve")}}},
                "404": problem,
            }),
        }},
        "/v1/solves/{id}/stats": map[string]any{"get": map[string]any{
            "summary":    "Fetch persisted search stats",
            "parameters": []any{map[string]any{"name": "id", "in": "path", "required": true, "schema": str}},
            "responses": responses(map[string]any{
                "200": map[string]any{"description": "Stats", "content": map[string]any{"application/json": map[string]any{"schema": ref("SolveStats")}}},
                "404": problem,
            }),
        }},
        "/v1/plans": map[string]any{"post": map[string]any{
            "summary":     "Geocode, build a matrix and solve in one call",
            "requestBody": jsonBody(ref("PlanRequest")),
            "responses": responses(map[string]any{
                "201": map[string]any{"description": "Plan", "content": map[string]any{"application/json": map[string]any{"schema": ref("Plan")}}},
                "400": problem,
                "422": problem,
                "502": problem,
                "503": problem,
            }),
        }},
        "/v1/events/ws": map[string]any{"get": map[string]any{
            "summary":   "WebSocket event stream (connection_init/subscribe envelope)",
            "responses": responses(map[string]any{"101": map[string]any{"description": "Switching Protocols"}}),
        }},
        "/v1/subscriptions": map[string]any{
            "post": map[string]any{
                "summary":     "Create a webhook subscription",
                "requestBody": jsonBody(ref("SubscriptionRequest")),
                "responses": responses(map[string]any{
                    "201": map[string]any{"description": "Created", "content": map[string]any{"application/json": map[string]any{"schema": ref("Subscription")}}},
                    "400": problem,
                }),
            },
            "get": map[string]any{
                "summary": "List webhook subscriptions",
                "responses": responses(map[string]any{
                    "200": map[string]any{"description": "Page", "content": map[string]any{"application/json": map[string]any{"schema": listPage(ref("Subscription"))}}},
                }),
            },
        },
        "/v1/subscriptions/{id}": map[string]any{"delete": map[string]any{
            "summary":    "Delete a webhook subscription",
            "parameters": []any{map[string]any{"name": "id", "in": "path", "required": true, "schema": str}},
            "responses": responses(map[string]any{
                "204": map[string]any{"description": "Deleted"},
                "404": problem,
            }),
        }},
    }

    return map[string]any{
        "openapi": "3.0.3",
        "info": map[string]any{
            "title":       "Route Planning API",
            "version":     buildinfo.Version,
            "description": "Cost matrices, TSP/CVRP solves, full address-to-itinerary plans, events and webhooks.",
        },
        "paths": paths,
        "components": map[string]any{
            "schemas": schemas,
            "securitySchemes": map[string]any{
                "ApiKey": map[string]any{"type": "apiKey", "in": "header", "name": "X-API-Key"},
            },
        },
    }
}
