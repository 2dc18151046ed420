// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

var configSchema = `
{
  "type": "object",
  "properties": {
    "addr": {
      "description": "Address where the status API will listen on (for example: 'localhost:8080').",
      "type": "string"
    },
    "checkpoint_dir": {
      "description": "Directory where search checkpoints are written.",
      "type": "string"
    },
    "checkpoint_interval": {
      "description": "How often the checkpoint task persists state, as a string parsable by time.ParseDuration().",
      "type": "string"
    },
    "db": {
      "description": "Path to the SQLite measurement database file (e.g., './var/optimizer.db').",
      "type": "string"
    },
    "model_repository": {
      "description": "Path to the inference server's model repository.",
      "type": "string"
    },
    "perf_analyzer_path": {
      "description": "Path to the load-generator binary.",
      "type": "string"
    },
    "triton_http_endpoint": { "type": "string" },
    "triton_grpc_endpoint": { "type": "string" },
    "client_protocol": { "type": "string", "enum": ["http", "grpc"] },
    "triton_launch_mode": { "type": "string", "enum": ["local", "docker", "remote"] },
    "run_config_search_mode": {
      "description": "Search strategy over the configuration space.",
      "type": "string",
      "enum": ["quick", "brute", "optuna"]
    },
    "run_config_search_disable": { "type": "boolean" },
    "run_config_search_min_concurrency": { "type": "integer", "minimum": 1 },
    "run_config_search_max_concurrency": { "type": "integer", "minimum": 1 },
    "run_config_search_min_request_rate": { "type": "integer", "minimum": 1 },
    "run_config_search_max_request_rate": { "type": "integer", "minimum": 1 },
    "run_config_search_max_instance_count": { "type": "integer", "minimum": 1 },
    "run_config_search_max_model_batch_size": { "type": "integer", "minimum": 1 },
    "early_exit_enable": { "type": "boolean" },
    "quick_search_step_decay": { "type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1 },
    "batch_sizes": {
      "type": "array",
      "items": { "type": "integer", "minimum": 1 }
    },
    "objectives": {
      "description": "Metrics to optimize: a list of metric names or a metric-to-weight map.",
      "oneOf": [
        { "type": "array", "items": { "type": "string" } },
        { "type": "object", "additionalProperties": { "type": "number" } }
      ]
    },
    "constraints": { "$ref": "#/$defs/constraints" },
    "profile_models": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": { "type": "string" },
          "weight": { "type": "number" },
          "cpu_only": { "type": "boolean" },
          "objectives": {
            "oneOf": [
              { "type": "array", "items": { "type": "string" } },
              { "type": "object", "additionalProperties": { "type": "number" } }
            ]
          },
          "constraints": { "$ref": "#/$defs/constraints" },
          "constraint_expressions": {
            "type": "array",
            "items": { "type": "string" }
          },
          "parameters": {
            "type": "object",
            "properties": {
              "batch_sizes": { "type": "array", "items": { "type": "integer" } },
              "concurrency": { "type": "array", "items": { "type": "integer" } },
              "request_rate": { "type": "array", "items": { "type": "integer" } }
            },
            "additionalProperties": false
          },
          "model_config_parameters": {
            "type": "object",
            "properties": {
              "max_batch_size": { "type": "array", "items": { "type": "integer" } },
              "instance_count": { "type": "array", "items": { "type": "integer" } },
              "dynamic_batching": {
                "type": "object",
                "properties": {
                  "preferred_batch_size": {
                    "type": "array",
                    "items": { "type": "array", "items": { "type": "integer" } }
                  },
                  "max_queue_delay_microseconds": {
                    "type": "array",
                    "items": { "type": "integer" }
                  }
                },
                "additionalProperties": false
              }
            },
            "additionalProperties": false
          },
          "perf_analyzer_flags": {
            "type": "object",
            "additionalProperties": { "type": "string" }
          }
        },
        "required": ["name"],
        "additionalProperties": false
      }
    },
    "nats": {
      "type": "object",
      "properties": {
        "address": { "type": "string" },
        "username": { "type": "string" },
        "password": { "type": "string" },
        "creds-file-path": { "type": "string" },
        "subject": { "type": "string" },
        "archive-dir": { "type": "string" }
      },
      "required": ["address"],
      "additionalProperties": false
    },
    "checkpoint_s3": {
      "type": "object",
      "properties": {
        "endpoint": { "type": "string" },
        "bucket": { "type": "string" },
        "access-key": { "type": "string" },
        "secret-key": { "type": "string" },
        "region": { "type": "string" },
        "use-path-style": { "type": "boolean" },
        "prefix": { "type": "string" }
      },
      "required": ["bucket"],
      "additionalProperties": false
    },
    "api": {
      "type": "object",
      "properties": {
        "jwt-public-key": { "type": "string" },
        "requests-per-second": { "type": "number" }
      },
      "additionalProperties": false
    }
  },
  "$defs": {
    "constraints": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "min": { "type": "number" },
          "max": { "type": "number" }
        },
        "additionalProperties": false
      }
    }
  }
}`
