package validate

// dependencySchema is the Draft-7 schema for application dependency
// descriptors. Compiled once at package init and reused.
const dependencySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "ApplicationDependency",
  "type": "object",
  "required": ["id", "name", "type", "provider", "region", "status", "created", "updated"],
  "additionalProperties": false,
  "properties": {
    "id": {
      "type": "string",
      "pattern": "^dep-[a-z0-9-]+$"
    },
    "name": {
      "type": "string",
      "minLength": 1,
      "maxLength": 255,
      "pattern": "^[a-zA-Z0-9-_]+$"
    },
    "type": {
      "type": "string",
      "enum": ["database", "cache", "queue", "storage", "compute", "network", "secrets", "config", "event-bus"]
    },
    "provider": {
      "type": "string",
      "enum": ["aws", "azure", "gcp"]
    },
    "region": {
      "type": "string",
      "pattern": "^[a-z]+-[a-z]+-\\d$"
    },
    "status": {
      "type": "string",
      "enum": ["pending", "validating", "valid", "invalid", "deploying", "deployed", "failed"]
    },
    "version": {
      "type": "string",
      "pattern": "^\\d+\\.\\d+\\.\\d+$"
    },
    "environment": {
      "type": "string",
      "enum": ["dev", "staging", "prod"]
    },
    "description": {
      "type": "string",
      "maxLength": 1000
    },
    "configuration": {
      "type": "object"
    },
    "policy": {
      "type": "object"
    },
    "generatedName": {
      "type": "string"
    },
    "tags": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "dependencies": {
      "type": "array",
      "items": {
        "type": "string",
        "pattern": "^dep-[a-z0-9-]+$"
      }
    },
    "deployedAt": {
      "type": ["string", "null"],
      "format": "date-time"
    },
    "created": {
      "type": "string",
      "format": "date-time"
    },
    "updated": {
      "type": "string",
      "format": "date-time"
    }
  }
}`
