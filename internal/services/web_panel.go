package services

// panelHTML is the embedded control panel page, served for every path the
// router does not recognize.
const panelHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Pico W</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            text-align: center;
            margin: 0;
            padding: 0;
            background: linear-gradient(to top, #003366, #66aaff);
            color: white;
            height: 100vh;
            display: flex;
            flex-direction: column;
            justify-content: center;
            align-items: center;
        }
        .button-container {
            display: flex;
            justify-content: center;
            gap: 20px;
        }
        button {
            width: 120px;
            height: 50px;
            font-size: 16px;
            font-weight: bold;
            background-color: #4CAF50;
            color: white;
            border: none;
            border-radius: 10px;
            cursor: pointer;
        }
        button:hover {
            transform: scale(1.05);
        }
        .on-button {
            font-size: 26px;
            background-color: #4CAF50;
        }
        .off-button {
            font-size: 26px;
            background-color: #f44336;
        }
        .log-button {
            width: 120px;
            height: 25px;
            font-size: 16px;
            background-color: grey;
        }
        .log-button:hover {
            transform: scale(1.05);
        }
        .space {
            margin-top: 20px;
        }
    </style>
    <script>
        async function toggleLED(action) {
            await fetch('/led/' + action);
        }

        function showLog() {
            window.open(window.location.origin + '/log', '_blank');
        }

        async function triggerUpdate() {
            const response = await fetch('/update');
            alert(await response.text());
        }
    </script>
</head>
<body>
    <h1>Control Onboard LED</h1>
    <div class="button-container">
        <button class="on-button" onclick="toggleLED('on')">ON</button>
        <button class="off-button" onclick="toggleLED('off')">OFF</button>
    </div>
    <div class="space"></div>
    <div class="button-container">
        <button class="log-button" onclick="showLog()">Show Log</button>
    </div>
    <div class="space"></div>
    <div class="button-container">
        <button class="log-button" onclick="triggerUpdate()">Check for Updates</button>
    </div>
</body>
</html>
`
