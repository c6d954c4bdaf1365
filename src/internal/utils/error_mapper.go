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

package utils

import (
	"net/http"

	"componenthost/src/internal/model"
)

// HTTPStatus maps a domain error to the control-API status code. The mapping
// is driven entirely by model.KindOf, not by matching individual sentinel
// errors, so every new failure surfaced through a *model.HostError is mapped
// automatically. Anything unclassified is treated as Internal.
func HTTPStatus(err error) int {
	switch model.KindOf(err) {
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindAmbiguous:
		return http.StatusConflict
	case model.KindInvalidInput, model.KindParse:
		return http.StatusBadRequest
	case model.KindFetch:
		return http.StatusBadGateway
	case model.KindCompile:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
