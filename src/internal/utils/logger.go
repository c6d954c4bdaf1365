/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

// Package utils holds the logging and error-classification helpers shared by
// the control API and the Lifecycle Manager.
package utils

import (
	"log"
	"runtime/debug"

	"componenthost/src/internal/model"
)

// LogError writes one error line tagged with the failure's ErrorKind. An
// Internal kind also gets a stack trace: those indicate a host bug, whereas
// NotFound/InvalidInput/Parse and friends are expected operator input
// failures that would only pollute the log with stacks.
func LogError(message string, err error) {
	if err == nil {
		return
	}
	kind := model.KindOf(err)
	log.Printf("[ERROR] %s (%s): %v", message, kind, err)
	if kind == model.KindInternal {
		log.Printf("[STACK] %s", debug.Stack())
	}
}

// LogWarn writes a warning line for conditions the host recovers from on its
// own, such as a policy sidecar that fails to parse during restart recovery.
func LogWarn(message string, err error) {
	if err != nil {
		log.Printf("[WARN] %s: %v", message, err)
		return
	}
	log.Printf("[WARN] %s", message)
}

// LogComponentEvent writes one line per component lifecycle transition so an
// operator tailing the log can follow load/unload/policy activity without
// querying the audit trail.
func LogComponentEvent(componentID, event string) {
	log.Printf("[INFO] component %s: %s", componentID, event)
}
