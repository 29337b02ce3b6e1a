// Package transparencia is a Go client for the transparencia collection API.
//
// The service drives a headless browser through the Portal da Transparência
// and returns the benefits received by a person, found by CPF/NIS or by name.
//
//	client, _ := transparencia.New(
//	    transparencia.WithBaseURL("http://localhost:8000"),
//	    transparencia.WithToken(os.Getenv("TRANSPARENCIA_TOKEN")),
//	)
//	res, err := client.Collect(ctx, "123.456.789-01", "")
//	var verr *transparencia.ValidationError
//	if errors.As(err, &verr) {
//	    // no results, or the filter matched nothing
//	}
package transparencia
