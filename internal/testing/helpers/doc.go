// Package helpers provides test utility functions for the micropost API.
//
// # Pointer Helpers
//
// Post fields distinguish "not supplied" (nil) from "empty":
//
//	content := helpers.StringPtr("hello")
//
// # JWT Helpers
//
// Sign bearer tokens for an author:
//
//	jh := helpers.NewJWTHelper(t)
//	token := jh.GenerateToken("user:alice")
//
// # Request Helpers
//
//	req := helpers.NewRequest(t, http.MethodPost, "/v1/posts").
//	    WithBody(map[string]string{"content": "hi"}).
//	    WithAuth(jh, "user:alice").
//	    Build()
//
// # Assertion Helpers
//
//	helpers.AssertStatus(t, rec, http.StatusCreated)
//	helpers.AssertViolations(t, rec, model.ViolationContentTooLong)
package helpers
