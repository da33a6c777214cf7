package cli

import (
	"context"
	"fmt"
	"os"
)

func (a *App) Register(ctx context.Context) error {

	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	res, err := a.client.Register(ctx, email, string(password))
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	a.email = res.User.Email
	fmt.Println(res.Message)
	return nil
}

func (a *App) Login(ctx context.Context) error {

	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	res, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	a.email = res.User.Email
	fmt.Println(res.Message)
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {

	u, err := a.client.Me(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	fmt.Printf("%s (%s)\n", u.Email, u.ID)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.client.SetToken("")
	a.email = ""
	fmt.Println("Logged out")
	return nil
}
