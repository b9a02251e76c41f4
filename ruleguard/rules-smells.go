package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two consecutive guards with the same return can be merged with ||.
	//   if a { return err }
	//   if b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

func errorHandling(m dsl.Matcher) {
	// Sentinels are wrapped with %w, so equality misses them.
	m.Match(`$err == $sentinel`, `$err != $sentinel`).
		Where(m["err"].Type.Is(`error`) && m["sentinel"].Text.Matches(`^(generation\.)?Err[A-Z]`)).
		Report(`compare sentinel errors with errors.Is`)

	m.Match(`fmt.Errorf($format, $*_, $err)`).
		Where(m["err"].Type.Is(`error`) && m["format"].Text.Matches(`%v"$`)).
		Report(`wrap the trailing error with %w so callers can match it`)
}

func providerCalls(m dsl.Matcher) {
	// Provider calls must be cancellable and bounded by the adapter's client.
	m.Match(`http.DefaultClient`, `http.Get($*_)`, `http.Post($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/infra/llm$`)).
		Report(`use the adapter's configured *http.Client with a request context`)

	m.Match(`http.NewRequest($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/infra/llm$`)).
		Report(`use http.NewRequestWithContext so request deadlines reach the provider call`)
}

func logging(m dsl.Matcher) {
	// Prompts and image payloads stay out of logs.
	m.Match(`slog.String("prompt", $_)`, `slog.Any("prompt", $_)`, `slog.String("image", $_)`).
		Report(`do not log prompts or image payloads`)

	m.Match(`fmt.Printf($*_)`, `fmt.Println($*_)`, `log.Printf($*_)`, `log.Println($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/`)).
		Report(`use the injected *slog.Logger instead of printing`)
}
