package redact_test

import (
	"fmt"

	"github.com/jonwraymond/calltrace/redact"
)

type User struct {
	ID       int
	Email    string `log:"sensitive,first=3,last=2"`
	Password string `log:"sensitive"`
}

func ExampleEngine_Render() {
	engine := redact.NewEngine()
	fmt.Println(engine.Render(User{ID: 1, Email: "john.doe@example.com", Password: "secretpass"}))
	// Output: User{ID=1, Email=joh***************om, Password=**********}
}

func ExampleMask() {
	fmt.Println(redact.Mask("4111111111111111", redact.Rule{ShowLast: 4, MaskChar: '#'}))
	// Output: ############1111
}
