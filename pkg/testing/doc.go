// Package testing provides a testing SDK for running a webserver in Go tests.
//
// It starts a real server on a loopback port, configures routes with a fluent
// builder and records every request for assertions.
//
// # Basic Usage
//
//	func TestMyClient(t *testing.T) {
//	    srv := wstesting.New(t)
//
//	    srv.Route("GET", "/users/123").
//	        WithStatus(200).
//	        WithJSON(map[string]string{"id": "123", "name": "Test User"}).
//	        Reply()
//
//	    url := srv.Start()
//
//	    resp, err := http.Get(url + "/users/123")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer resp.Body.Close()
//
//	    srv.AssertCalled(t, "GET", "/users/123")
//	}
//
// The server is stopped when the test completes.
//
// # Routes
//
// Route registers an exact path, Prefix a path prefix. The longest matching
// prefix wins and an exact route always beats a prefix:
//
//	srv.Prefix("", "/static/").WithBody("asset").Reply()
//	srv.Route("", "/static/index.html").WithBody("<html>").Reply()
//
// An empty method accepts any method; otherwise other methods get 405.
//
// # Responses
//
//	srv.Route("POST", "/api/items").
//	    WithStatus(201).
//	    WithHeader("Location", "/api/items/1").
//	    WithJSON(item).
//	    WithDelay("100ms").
//	    Reply()
//
//	srv.Route("GET", "/legacy").WithBody("café").WithEncoding("ISO-8859-1").Reply()
//	srv.Route("GET", "/broken").WithError("database unavailable").Reply()
//	srv.Prefix("", "/echo/").Echo().Reply()
//
// Arbitrary handlers can be registered with Handle and HandlePrefix.
//
// # Limited Responses
//
//	srv.Route("GET", "/api/once").Once().Reply() // then 404
//
// # Assertions
//
//	srv.AssertCalled(t, "GET", "/api/endpoint")
//	srv.AssertCalledTimes(t, "POST", "/api/create", 3)
//	srv.AssertNotCalled(t, "DELETE", "/api/items/{id}")
//
//	for _, req := range srv.Requests() {
//	    req.AssertHeader(t, "Content-Type", "application/json")
//	    req.AssertJSONBody(t, expectedBody)
//	}
//
// Reset removes every route and clears the request history.
package testing
